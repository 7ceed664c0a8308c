package romname

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"romdata/internal/logging"
)

// Scheme is a bitmask of platform-specific naming conventions a filename may
// follow. Provider adapters derive the mask from their own platform ids so
// the resolver itself stays provider-agnostic.
type Scheme uint8

const (
	// SchemeDiscSerial covers PS2 OPL-style filenames that start with the
	// disc serial, e.g. "SCUS_123.45.Game Title.iso".
	SchemeDiscSerial Scheme = 1 << iota
	// SchemeTitleID covers Switch dumps carrying a 14-digit title id or a
	// 16-hex-char product id in a tag group.
	SchemeTitleID
	// SchemeArcade covers MAME-style short set names, e.g. "mslug.zip".
	SchemeArcade
)

var (
	discSerialPattern = regexp.MustCompile(`^([A-Z]{4}_\d{3}\.\d{2})\..*$`)
	titleIDPattern    = regexp.MustCompile(`(70[0-9]{12})`)
	productIDPattern  = regexp.MustCompile(`(0100[0-9A-F]{12})`)
)

// Index resolves a platform-specific code to a canonical title. Lookups are
// best-effort: a missing entry or an unavailable index both report false.
type Index interface {
	Lookup(ctx context.Context, code string) (string, bool)
}

// Indexes bundles the code-to-title indexes the resolver consults. Any nil
// index disables its scheme.
type Indexes struct {
	Serials    Index
	TitleIDs   Index
	ProductIDs Index
	Arcade     Index
}

// Resolver turns raw rom filenames into canonical search terms.
type Resolver struct {
	indexes Indexes
	logger  *slog.Logger
}

// NewResolver builds a resolver over the given indexes. A nil logger is
// replaced with a no-op logger.
func NewResolver(indexes Indexes, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{indexes: indexes, logger: logger.With(logging.String(logging.FieldComponent, "romname"))}
}

// SearchTerm derives the canonical search term for fileName. The tag-stripped
// filename is the baseline; each scheme in the mask may replace it with an
// index-resolved title. Index misses and unavailable indexes fall back to the
// baseline rather than failing. Trademark symbols are always stripped last.
func (r *Resolver) SearchTerm(ctx context.Context, fileName string, schemes Scheme) string {
	term := StripTags(fileName)

	if schemes&SchemeDiscSerial != 0 {
		if resolved, ok := r.fromDiscSerial(ctx, fileName); ok {
			term = resolved
		}
	}
	if schemes&SchemeTitleID != 0 {
		if resolved, ok := r.fromTitleID(ctx, fileName); ok {
			term = resolved
		}
	}
	if schemes&SchemeArcade != 0 {
		if resolved, ok := r.fromArcadeSet(ctx, term); ok {
			term = resolved
		}
	}

	return StripSymbols(term)
}

// fromDiscSerial resolves an OPL-style serial prefix against the serial
// index. The indexed title is used verbatim.
func (r *Resolver) fromDiscSerial(ctx context.Context, fileName string) (string, bool) {
	match := discSerialPattern.FindStringSubmatch(fileName)
	if match == nil || r.indexes.Serials == nil {
		return "", false
	}
	title, ok := r.indexes.Serials.Lookup(ctx, match[1])
	if !ok {
		r.logger.DebugContext(ctx, "serial not in index", logging.String("serial", match[1]))
		return "", false
	}
	return title, true
}

// fromTitleID resolves a Switch title id or product id embedded in the
// filename. Product ids for updates and DLC are masked back to the base
// title before lookup.
func (r *Resolver) fromTitleID(ctx context.Context, fileName string) (string, bool) {
	if match := titleIDPattern.FindStringSubmatch(fileName); match != nil && r.indexes.TitleIDs != nil {
		if title, ok := r.indexes.TitleIDs.Lookup(ctx, match[1]); ok {
			return title, true
		}
		r.logger.DebugContext(ctx, "title id not in index", logging.String("title_id", match[1]))
	}
	if match := productIDPattern.FindStringSubmatch(strings.ToUpper(fileName)); match != nil && r.indexes.ProductIDs != nil {
		masked := maskProductID(match[1])
		if title, ok := r.indexes.ProductIDs.Lookup(ctx, masked); ok {
			return title, true
		}
		r.logger.DebugContext(ctx, "product id not in index", logging.String("product_id", masked))
	}
	return "", false
}

// maskProductID zeroes the update/DLC digit (third hex char from the end) so
// update and DLC dumps resolve to their base title.
func maskProductID(id string) string {
	chars := []byte(id)
	chars[len(chars)-3] = '0'
	return string(chars)
}

// fromArcadeSet resolves a MAME set name to its catalog description, which is
// itself tag-stripped since MAME descriptions carry parenthesized metadata.
func (r *Resolver) fromArcadeSet(ctx context.Context, setName string) (string, bool) {
	if r.indexes.Arcade == nil {
		return "", false
	}
	description, ok := r.indexes.Arcade.Lookup(ctx, setName)
	if !ok {
		return "", false
	}
	return StripTags(description), true
}
