package resolver

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"log/slog"

	"romdata/internal/logging"
	"romdata/internal/metadata"
	"romdata/internal/romname"
	"romdata/internal/services"
)

// Saver persists resolved records. The store implements it; a nil Saver
// disables persistence.
type Saver interface {
	SavePlatform(ctx context.Context, platform metadata.Platform, ids metadata.PlatformIDs) error
	SaveRom(ctx context.Context, platformSlug, fileName string, rom metadata.Rom) error
}

// Resolver fans metadata queries out to the configured providers and merges
// their answers. Provider order is merge precedence: the first provider's
// fields win and later providers fill the gaps.
type Resolver struct {
	providers []metadata.Provider
	saver     Saver
	logger    *slog.Logger
}

// New builds a resolver over providers in precedence order.
func New(providers []metadata.Provider, saver Saver, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		providers: providers,
		saver:     saver,
		logger:    logger.With(logging.String(logging.FieldComponent, "resolver")),
	}
}

// Platform resolves a platform slug against every provider and combines the
// provider-specific ids into one record. The display name comes from the
// first provider that recognized the slug; when none do, the fallback record
// derived from the slug is returned.
func (r *Resolver) Platform(ctx context.Context, slug string) (metadata.Platform, metadata.PlatformIDs, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return metadata.Platform{}, metadata.PlatformIDs{}, services.Wrap(services.ErrValidation, "resolver", "platform", "slug is required", nil)
	}

	type answer struct {
		platform metadata.Platform
		err      error
	}
	answers := make([]answer, len(r.providers))
	var wg sync.WaitGroup
	for i, provider := range r.providers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			platform, err := provider.Platform(services.WithProvider(ctx, provider.Name()), slug)
			answers[i] = answer{platform: platform, err: err}
		}()
	}
	wg.Wait()

	var ids metadata.PlatformIDs
	resolved := metadata.FallbackPlatform(slug)
	matched := false
	for i, a := range answers {
		if a.err != nil {
			if services.Fatal(a.err) {
				return metadata.Platform{}, metadata.PlatformIDs{}, a.err
			}
			r.logger.WarnContext(ctx, "provider answer dropped",
				logging.String(logging.FieldProvider, r.providers[i].Name()),
				logging.Error(a.err),
			)
			continue
		}
		if a.platform.ProviderID == nil {
			continue
		}
		switch r.providers[i].Name() {
		case "igdb":
			ids.IGDB = *a.platform.ProviderID
		case "mobygames":
			ids.Moby = *a.platform.ProviderID
		}
		if !matched {
			resolved = a.platform
			matched = true
		}
	}

	if r.saver != nil {
		if err := r.saver.SavePlatform(ctx, resolved, ids); err != nil {
			r.logger.WarnContext(ctx, "platform not persisted",
				logging.String(logging.FieldPlatform, slug),
				logging.Error(err),
			)
		}
	}
	return resolved, ids, nil
}

// Identify resolves a rom filename on a platform: every provider searches
// concurrently and the answers merge under provider precedence. The merged
// record is persisted when a saver is configured. A filename no provider
// recognizes yields an all-defaults record, not an error.
func (r *Resolver) Identify(ctx context.Context, fileName, platformSlug string) (metadata.Rom, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return metadata.Rom{}, services.Wrap(services.ErrValidation, "resolver", "identify", "file name is required", nil)
	}

	_, ids, err := r.Platform(ctx, platformSlug)
	if err != nil {
		return metadata.Rom{}, err
	}

	lists := make([][]metadata.Rom, len(r.providers))
	errs := make([]error, len(r.providers))
	var wg sync.WaitGroup
	for i, provider := range r.providers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rom, err := provider.RomByFile(services.WithProvider(ctx, provider.Name()), fileName, ids)
			if err != nil {
				errs[i] = err
				return
			}
			if rom.Matched() {
				lists[i] = []metadata.Rom{rom}
			}
		}()
	}
	wg.Wait()
	if err := r.collectErrors(ctx, errs); err != nil {
		return metadata.Rom{}, err
	}

	merged := metadata.Merge(lists...)
	var result metadata.Rom
	if len(merged) > 0 {
		result = merged[0]
	}
	result.Normalize()

	if r.saver != nil {
		if err := r.saver.SaveRom(ctx, platformSlug, fileName, result); err != nil {
			r.logger.WarnContext(ctx, "rom not persisted",
				logging.String("file_name", fileName),
				logging.Error(err),
			)
		}
	}
	return result, nil
}

// Search answers a free-form query: by name across all providers with
// merge-dedup, or by provider id against the provider owning that id space.
// A name query without an explicit term falls back to the query's filename
// with release tags stripped.
func (r *Resolver) Search(ctx context.Context, query metadata.Query) ([]metadata.Rom, error) {
	switch query.SearchBy {
	case metadata.SearchByID:
		id, err := strconv.ParseInt(strings.TrimSpace(query.Term), 10, 64)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "resolver", "search", "id term must be numeric", err)
		}
		rom, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return []metadata.Rom{rom}, nil
	case metadata.SearchByName, "":
		term := strings.TrimSpace(query.Term)
		if term == "" && query.FileName != "" {
			term = romname.StripTags(query.FileName)
		}
		return r.FindByName(ctx, term, query.Platform)
	default:
		return nil, services.Wrap(services.ErrValidation, "resolver", "search", "unknown search mode "+string(query.SearchBy), nil)
	}
}

// FindByID fetches one record by provider id from the highest-precedence
// provider. The returned record always echoes the requested id, so a miss is
// recognizable by its empty remaining fields rather than an error.
func (r *Resolver) FindByID(ctx context.Context, id int64) (metadata.Rom, error) {
	if len(r.providers) == 0 {
		return metadata.Rom{}, services.Wrap(services.ErrConfiguration, "resolver", "search", "no providers configured", nil)
	}
	ctx = services.WithRomID(ctx, id)
	rom, err := r.providers[0].RomByID(services.WithProvider(ctx, r.providers[0].Name()), id)
	if err != nil {
		return metadata.Rom{}, err
	}
	rom.ProviderID = metadata.ProviderID(id)
	if rom.Provider == "" {
		rom.Provider = r.providers[0].Name()
	}
	rom.Normalize()
	return rom, nil
}

// FindByName searches every provider concurrently and merges the result
// lists under provider precedence.
func (r *Resolver) FindByName(ctx context.Context, term string, platform metadata.PlatformIDs) ([]metadata.Rom, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, services.Wrap(services.ErrValidation, "resolver", "search", "search term is required", nil)
	}

	lists := make([][]metadata.Rom, len(r.providers))
	errs := make([]error, len(r.providers))
	var wg sync.WaitGroup
	for i, provider := range r.providers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lists[i], errs[i] = provider.SearchByName(services.WithProvider(ctx, provider.Name()), term, platform)
		}()
	}
	wg.Wait()
	if err := r.collectErrors(ctx, errs); err != nil {
		return nil, err
	}
	return metadata.Merge(lists...), nil
}

// collectErrors separates fatal provider failures from recoverable ones.
// Fatal errors abort the whole lookup; anything else is logged and the
// provider's answer treated as empty, so one misbehaving provider cannot
// sink the others.
func (r *Resolver) collectErrors(ctx context.Context, errs []error) error {
	for i, err := range errs {
		if err == nil {
			continue
		}
		if services.Fatal(err) {
			return err
		}
		r.logger.WarnContext(ctx, "provider answer dropped",
			logging.String(logging.FieldProvider, r.providers[i].Name()),
			logging.Error(err),
		)
	}
	return nil
}
