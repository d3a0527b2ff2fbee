package booking

// Page is the envelope for paginated order listings. The accounting fields
// come from the persisted order count, independent of enrichment outcomes.
type Page struct {
	Content    []EnrichedOrder
	PageNumber int
	Size       int
	TotalItems int64
	TotalPages int
	First      bool
	Last       bool
}

func NewPage(content []EnrichedOrder, page, size int, total int64) Page {
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return Page{
		Content:    content,
		PageNumber: page,
		Size:       size,
		TotalItems: total,
		TotalPages: totalPages,
		First:      page == 0,
		Last:       page >= totalPages-1,
	}
}
