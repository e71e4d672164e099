package petfinder

import (
	"bytes"
	"encoding/json"
	"fmt"

	"petsnapshot/internal/domain"
)

// decodePage reads a list response. Continuation comes from the pagination
// block when present, otherwise a full page means more may follow.
func decodePage(kind domain.ResourceKind, number, pageSize int, body []byte) (domain.Page, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var envelope map[string]any
	if err := dec.Decode(&envelope); err != nil {
		return domain.Page{}, fmt.Errorf("decode %s page: %w", kind, err)
	}

	list, present := envelope[string(kind)]
	if !present {
		return domain.Page{}, fmt.Errorf("decode %s page: response has no %q list", kind, kind)
	}
	items, ok := list.([]any)
	if list != nil && !ok {
		return domain.Page{}, fmt.Errorf("decode %s page: %q is not a list", kind, kind)
	}

	records := make([]domain.RawRecord, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			records = append(records, domain.RawRecord(obj))
			continue
		}
		// Keep the slot so the normalizer reports it as malformed.
		records = append(records, domain.RawRecord{})
	}

	hasMore := pageSize > 0 && len(items) >= pageSize
	if current, total, ok := pagination(envelope["pagination"]); ok {
		hasMore = current < total
	}
	if len(items) == 0 {
		hasMore = false
	}

	return domain.Page{Kind: kind, Number: number, Records: records, HasMore: hasMore}, nil
}

func pagination(value any) (current, total int64, ok bool) {
	block, isMap := value.(map[string]any)
	if !isMap {
		return 0, 0, false
	}
	current, okCurrent := number(block["current_page"])
	total, okTotal := number(block["total_pages"])
	return current, total, okCurrent && okTotal
}

func number(value any) (int64, bool) {
	n, ok := value.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	return i, err == nil
}
