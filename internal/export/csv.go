// Package export serializes stored profiles as CSV. The header and column
// order are fixed for compatibility with existing consumers.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/user/profile-crawler/internal/entity"
)

// Header is the first CSV row.
var Header = []string{"URL", "Name", "Phone", "About", "Scraped_At"}

// WriteCSV writes the header followed by one row per profile, in order.
func WriteCSV(w io.Writer, profiles []entity.Profile) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, p := range profiles {
		row := []string{p.URL, p.Name, p.Phone, p.About, p.ScrapedAt.UTC().Format(time.RFC3339)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the CSV to a temp file next to path and renames it into
// place, so readers never see a half written export.
func WriteFile(path string, profiles []entity.Profile) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, profiles); err != nil {
		tmp.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move export into place: %w", err)
	}
	return nil
}
