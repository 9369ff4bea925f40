package view

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/flopysoft/flopy-crm/internal/models"
)

// ErrMissingHeaders is returned when an import file lacks the required
// first_name / last_name columns.
var ErrMissingHeaders = errors.New("csv must contain first_name and last_name columns")

// utf8BOM prefixes exports so spreadsheet apps pick up the encoding.
const utf8BOM = "\xef\xbb\xbf"

// exportHeaders is the fixed export column order.
var exportHeaders = []string{
	"first_name", "last_name", "email", "phone", "company",
	"position", "address", "city", "country", "notes", "tags", "created_at",
}

// ContactRow is one parsed import row. Fields absent from the file stay
// empty.
type ContactRow struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Company   string
	Position  string
	Address   string
	City      string
	Country   string
	Notes     string
}

// ParseContactCSV reads an import file. Header names are matched
// case-insensitively and a leading byte order mark is ignored. Rows are
// returned as-is; the caller decides which rows are importable.
func ParseContactCSV(r io.Reader) ([]ContactRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, ErrMissingHeaders
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := index["first_name"]; !ok {
		return nil, ErrMissingHeaders
	}
	if _, ok := index["last_name"]; !ok {
		return nil, ErrMissingHeaders
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []ContactRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, ContactRow{
			FirstName: field(record, "first_name"),
			LastName:  field(record, "last_name"),
			Email:     field(record, "email"),
			Phone:     field(record, "phone"),
			Company:   field(record, "company"),
			Position:  field(record, "position"),
			Address:   field(record, "address"),
			City:      field(record, "city"),
			Country:   field(record, "country"),
			Notes:     field(record, "notes"),
		})
	}
	return rows, nil
}

// WriteContactCSV writes contacts in the fixed export column order,
// prefixed with a UTF-8 byte order mark.
func WriteContactCSV(w io.Writer, contacts []models.Contact) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeaders); err != nil {
		return err
	}
	for _, contact := range contacts {
		names := make([]string, len(contact.Tags))
		for i, tag := range contact.Tags {
			names[i] = tag.Name
		}
		record := []string{
			contact.FirstName, contact.LastName, contact.Email, contact.Phone,
			contact.Company, contact.Position, contact.Address, contact.City,
			contact.Country, contact.Notes, strings.Join(names, ";"),
			contact.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
