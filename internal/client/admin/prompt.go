package admin

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

func ask(sc *bufio.Scanner, w io.Writer, label string) string {
	fmt.Fprintf(w, "%s: ", label)
	if !sc.Scan() {
		return ""
	}
	return strings.TrimSpace(sc.Text())
}

// PromptPackage reads a new package from the shell.
func PromptPackage(sc *bufio.Scanner, w io.Writer) PackageInput {
	return PackageInput{
		Category:  ask(sc, w, "Category (local/international)"),
		Title:     ask(sc, w, "Title"),
		Details:   ask(sc, w, "Details"),
		Price:     ask(sc, w, "Price"),
		ImageFile: ask(sc, w, "Image file (jpg/png/webp)"),
	}
}

// PromptChanges reads a partial update; blank answers leave a field unchanged.
func PromptChanges(sc *bufio.Scanner, w io.Writer) PackageChanges {
	var ch PackageChanges
	for _, f := range []struct {
		label string
		dst   **string
	}{
		{"New category (blank to keep)", &ch.Category},
		{"New title (blank to keep)", &ch.Title},
		{"New details (blank to keep)", &ch.Details},
		{"New price (blank to keep)", &ch.Price},
	} {
		if v := ask(sc, w, f.label); v != "" {
			*f.dst = &v
		}
	}
	return ch
}
