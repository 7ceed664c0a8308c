// Package romname turns rom filenames into canonical search terms. It strips
// release tags and trademark symbols, transliterates to ASCII, and resolves
// serial, title-id, and arcade set-name conventions against lookup indexes
// before searching.
package romname
