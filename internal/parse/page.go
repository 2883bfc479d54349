package parse

import (
	"fmt"
	"strconv"

	"warehouse-reservation-backend/internal/domain"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Page reads limit and offset query values. Empty values take defaults;
// limit is capped at MaxLimit.
func Page(limitRaw, offsetRaw string) (limit, offset int, err error) {
	limit = DefaultLimit
	if limitRaw != "" {
		limit, err = strconv.Atoi(limitRaw)
		if err != nil || limit <= 0 {
			return 0, 0, domain.NewError(domain.KindInvalidArgument, fmt.Sprintf("invalid limit %q", limitRaw))
		}
		if limit > MaxLimit {
			limit = MaxLimit
		}
	}
	if offsetRaw != "" {
		offset, err = strconv.Atoi(offsetRaw)
		if err != nil || offset < 0 {
			return 0, 0, domain.NewError(domain.KindInvalidArgument, fmt.Sprintf("invalid offset %q", offsetRaw))
		}
	}
	return limit, offset, nil
}
