package http

import (
	"net/http"
	"circdesk/pkg/config"
	apperrors "circdesk/pkg/errors"
	"strconv"
)

// OperatorHeader carries the desk operator's identity, set by the
// authentication layer in front of this service.
const OperatorHeader = "X-Operator-Id"

// ExtractOperator returns the operator id or an InvalidInput error when the
// header is missing. Every mutating desk operation records an actor.
func ExtractOperator(r *http.Request) (string, error) {
	actor := r.Header.Get(OperatorHeader)
	if actor == "" {
		return "", apperrors.InvalidInput("Missing " + OperatorHeader + " header")
	}
	return actor, nil
}

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = int64(v)
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}
