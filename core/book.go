package core

import "strings"

// Book is a catalog entry as exposed by the inventory store. CopiesAvailable
// is never negative; it is mutated only through InventoryStore.Reserve.
type Book struct {
	BookID          string `json:"bookId" db:"book_id"`
	Title           string `json:"title" db:"title"`
	Author          string `json:"author" db:"author"`
	CopiesAvailable int    `json:"copies_available" db:"copies_available"`
	Location        string `json:"location" db:"location"`
	Category        string `json:"category" db:"category"`
}

// FindBookByTitle returns the first catalog entry whose title matches exactly
// (case-insensitive). Catalog enumeration order is the tie-break.
func FindBookByTitle(books []Book, title string) (Book, bool) {
	for _, b := range books {
		if strings.EqualFold(b.Title, title) {
			return b, true
		}
	}
	return Book{}, false
}

// FindBookByID returns the catalog entry with the given identifier.
func FindBookByID(books []Book, id string) (Book, bool) {
	for _, b := range books {
		if b.BookID == id {
			return b, true
		}
	}
	return Book{}, false
}
