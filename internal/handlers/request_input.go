package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"sort"
	"strconv"
	"strings"

	"github.com/01moynul/workshop-logistics/internal/models"
)

const (
	// legacyFilesField carries files matched to items by position.
	legacyFilesField = "files"
	// attachmentPrefix/Suffix frame the per-item token: "attachments[<token>]".
	attachmentPrefix = "attachments["
	attachmentSuffix = "]"

	// Column bounds: quantity INT, price DECIMAL(12,2).
	maxQuantity = math.MaxInt32
	maxPrice    = 9999999999.99
)

// SubmitRequestForm is the multipart form accepted by POST /api/requests.
type SubmitRequestForm struct {
	Name     string `form:"name" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	TeamName string `form:"teamName" binding:"required"`
	Items    string `form:"items" binding:"required"`
}

// ItemInput is one element of the JSON "items" field. Unknown keys are rejected.
type ItemInput struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Quantity    flexNumber `json:"quantity"`
	Price       flexNumber `json:"price"`
	Source      string     `json:"source"`
	Attachment  string     `json:"attachment,omitempty"`
}

// flexNumber accepts a JSON number or a string holding one ("2", "50.5").
type flexNumber string

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*n = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = flexNumber(strings.TrimSpace(s))
	default:
		var num json.Number
		if err := json.Unmarshal(b, &num); err != nil {
			return fmt.Errorf("expected a number or numeric string, got %s", b)
		}
		*n = flexNumber(num.String())
	}
	return nil
}

// parseItems decodes and validates the items payload into Item models
// (without IDs) plus the attachment token each item declared.
func parseItems(raw string) ([]models.Item, []string, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var inputs []ItemInput
	if err := dec.Decode(&inputs); err != nil {
		var typeErr *json.UnmarshalTypeError
		var syntaxErr *json.SyntaxError
		if errors.As(err, &typeErr) && typeErr.Field == "" || errors.As(err, &syntaxErr) ||
			errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, nil, &ParseError{Err: err}
		}
		return nil, nil, validationf("Invalid items: " + err.Error())
	}
	if dec.More() {
		return nil, nil, &ParseError{Err: errors.New("trailing data after array")}
	}
	if len(inputs) == 0 {
		return nil, nil, validationf("At least one item is required")
	}

	items := make([]models.Item, len(inputs))
	tokens := make([]string, len(inputs))
	for i, in := range inputs {
		item, err := in.toItem(i + 1)
		if err != nil {
			return nil, nil, err
		}
		items[i] = item
		tokens[i] = strings.TrimSpace(in.Attachment)
	}
	return items, tokens, nil
}

func (in ItemInput) toItem(pos int) (models.Item, error) {
	item := models.Item{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Source:      strings.TrimSpace(in.Source),
	}

	var missing []string
	if item.Name == "" {
		missing = append(missing, "name")
	}
	if item.Description == "" {
		missing = append(missing, "description")
	}
	if in.Quantity == "" {
		missing = append(missing, "quantity")
	}
	if item.Source == "" {
		missing = append(missing, "source")
	}
	if len(missing) > 0 {
		return item, validationf(fmt.Sprintf("Item %d: missing required fields: %s", pos, strings.Join(missing, ", ")))
	}

	qty, err := strconv.Atoi(string(in.Quantity))
	if err != nil || qty <= 0 {
		return item, validationf(fmt.Sprintf("Item %d: quantity must be a positive integer", pos))
	}
	if qty > maxQuantity {
		return item, validationf(fmt.Sprintf("Item %d: quantity must not exceed %d", pos, maxQuantity))
	}
	item.Quantity = qty

	if in.Price != "" {
		price, err := strconv.ParseFloat(string(in.Price), 64)
		if err != nil || price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
			return item, validationf(fmt.Sprintf("Item %d: price must be a non-negative number", pos))
		}
		if price > maxPrice {
			return item, validationf(fmt.Sprintf("Item %d: price must not exceed %.2f", pos, maxPrice))
		}
		if math.Round(price*100)/100 != price {
			return item, validationf(fmt.Sprintf("Item %d: price must have at most 2 decimal places", pos))
		}
		item.Price = price
	}
	return item, nil
}

// matchAttachments returns, for every item, the uploaded file bound to it
// (nil when none).
//
// When any item declares an attachment token, each token must name exactly
// one part "attachments[<token>]" and every such part must be claimed.
// Otherwise files under "files" are matched by position: file N goes to
// item N, and uploading more files than items is rejected.
func matchAttachments(tokens []string, form *multipart.Form) ([]*multipart.FileHeader, error) {
	out := make([]*multipart.FileHeader, len(tokens))

	var files map[string][]*multipart.FileHeader
	if form != nil {
		files = form.File
	}
	positional := files[legacyFilesField]
	if len(positional) == 0 {
		positional = files[legacyFilesField+"[]"]
	}

	tokenParts := map[string]*multipart.FileHeader{}
	for field, headers := range files {
		if !strings.HasPrefix(field, attachmentPrefix) || !strings.HasSuffix(field, attachmentSuffix) {
			continue
		}
		token := strings.TrimSuffix(strings.TrimPrefix(field, attachmentPrefix), attachmentSuffix)
		if token == "" || len(headers) != 1 {
			return nil, validationf(fmt.Sprintf("Attachment field %q must carry exactly one file", field))
		}
		tokenParts[token] = headers[0]
	}

	explicit := false
	for _, t := range tokens {
		if t != "" {
			explicit = true
			break
		}
	}

	if !explicit {
		if len(tokenParts) > 0 {
			return nil, validationf("Attachments were uploaded but no item declares them")
		}
		if len(positional) > len(tokens) {
			return nil, validationf(fmt.Sprintf("Received %d files for %d items", len(positional), len(tokens)))
		}
		copy(out, positional)
		return out, nil
	}

	if len(positional) > 0 {
		return nil, validationf(`Use either per-item attachment tokens or the "files" field, not both`)
	}

	claimed := map[string]bool{}
	for i, t := range tokens {
		if t == "" {
			continue
		}
		if claimed[t] {
			return nil, validationf(fmt.Sprintf("Item %d: attachment %q is used by more than one item", i+1, t))
		}
		fh, ok := tokenParts[t]
		if !ok {
			return nil, validationf(fmt.Sprintf("Item %d: attachment %q was not uploaded", i+1, t))
		}
		claimed[t] = true
		out[i] = fh
	}

	var unclaimed []string
	for t := range tokenParts {
		if !claimed[t] {
			unclaimed = append(unclaimed, t)
		}
	}
	if len(unclaimed) > 0 {
		sort.Strings(unclaimed)
		return nil, validationf("Attachments not referenced by any item: " + strings.Join(unclaimed, ", "))
	}
	return out, nil
}
