package lookup

import (
	"encoding/json"
	"encoding/xml"
	"strings"
)

// parseSerials decodes the OPL disc-serial index: a JSON object keyed by
// serial, each value carrying a "Name" field.
func parseSerials(data []byte) (map[string]string, error) {
	var raw map[string]struct {
		Name string `json:"Name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	entries := make(map[string]string, len(raw))
	for serial, entry := range raw {
		if name := strings.TrimSpace(entry.Name); name != "" {
			entries[strings.TrimSpace(serial)] = name
		}
	}
	return entries, nil
}

// parseTitleDB decodes the Switch title-id and product-id indexes: a JSON
// object keyed by id, each value carrying a "name" field.
func parseTitleDB(data []byte) (map[string]string, error) {
	var raw map[string]struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	entries := make(map[string]string, len(raw))
	for id, entry := range raw {
		if name := strings.TrimSpace(entry.Name); name != "" {
			entries[strings.ToUpper(strings.TrimSpace(id))] = name
		}
	}
	return entries, nil
}

// parseArcade decodes a MAME menu listing: <menu><game name="set">
// <description>Title (metadata)</description></game></menu>. Set names map
// to their human-readable descriptions.
func parseArcade(data []byte) (map[string]string, error) {
	var menu struct {
		Games []struct {
			Name        string `xml:"name,attr"`
			Description string `xml:"description"`
		} `xml:"game"`
	}
	if err := xml.Unmarshal(data, &menu); err != nil {
		return nil, err
	}
	entries := make(map[string]string, len(menu.Games))
	for _, game := range menu.Games {
		name := strings.TrimSpace(game.Name)
		description := strings.TrimSpace(game.Description)
		if name != "" && description != "" {
			entries[name] = description
		}
	}
	return entries, nil
}
