package config

const (
	defaultDataDir         = "~/.local/share/romdata"
	defaultLogDir          = "~/.local/share/romdata/logs"
	defaultIndexDir        = "~/.local/share/romdata/indexes"
	defaultIGDBBaseURL     = "https://api.igdb.com/v4"
	defaultIGDBTokenURL    = "https://id.twitch.tv/oauth2/token"
	defaultMobyBaseURL     = "https://api.mobygames.com/v1"
	defaultRequestTimeout  = 120
	defaultTokenTimeout    = 30
	defaultDownloadTimeout = 300
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"

	defaultSerialsURL    = "https://raw.githubusercontent.com/rommapp/romm/release/backend/handler/fixtures/ps2_opl_index.json"
	defaultTitleDBURL    = "https://raw.githubusercontent.com/blawar/titledb/master/US.en.json"
	defaultProductIDsURL = "https://raw.githubusercontent.com/rommapp/romm/release/backend/handler/fixtures/switch_product_ids.json"
	defaultArcadeURL     = "https://raw.githubusercontent.com/rommapp/romm/release/backend/handler/fixtures/mame.xml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		IGDB: IGDB{
			BaseURL:        defaultIGDBBaseURL,
			TokenURL:       defaultIGDBTokenURL,
			RequestTimeout: defaultRequestTimeout,
			TokenTimeout:   defaultTokenTimeout,
		},
		MobyGames: MobyGames{
			BaseURL:        defaultMobyBaseURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Providers: Providers{
			Order: []string{"igdb", "mobygames"},
		},
		Indexes: Indexes{
			Dir:             defaultIndexDir,
			SerialsURL:      defaultSerialsURL,
			TitleDBURL:      defaultTitleDBURL,
			ProductIDsURL:   defaultProductIDsURL,
			ArcadeURL:       defaultArcadeURL,
			DownloadTimeout: defaultDownloadTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
