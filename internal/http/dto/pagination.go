package dto

// Pagination describes one offset/limit page of a result list. The total
// is unknown because paging happens after the distance filter.
type Pagination struct {
	Offset     int  `json:"offset"`
	Limit      int  `json:"limit"`
	Count      int  `json:"count"`
	HasNext    bool `json:"has_next"`
	NextOffset int  `json:"next_offset,omitempty"`
}

func NewPagination(offset, limit, count int) *Pagination {
	if offset < 0 {
		offset = 0
	}
	p := &Pagination{
		Offset: offset,
		Limit:  limit,
		Count:  count,
	}
	// A full page may have more behind it.
	if limit > 0 && count >= limit {
		p.HasNext = true
		p.NextOffset = offset + count
	}
	return p
}
