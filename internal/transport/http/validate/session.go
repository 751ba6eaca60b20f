package validate

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/fleshka4/swap-widget/internal/transport/http/dto"
)

// TokensRequestValidate validates /quote/tokens request and returns dto.
func TokensRequestValidate(r *http.Request) (*dto.TokensRequest, int, error) {
	q := r.URL.Query()

	tokenIn, err := optionalAddress(q, "token_in")
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	tokenOut, err := optionalAddress(q, "token_out")
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	if tokenIn == nil && tokenOut == nil {
		return nil, http.StatusBadRequest, errors.New("missing params")
	}

	return &dto.TokensRequest{TokenIn: tokenIn, TokenOut: tokenOut}, 0, nil
}

// AmountRequestValidate validates /quote/amount request and returns dto.
func AmountRequestValidate(r *http.Request) (*dto.AmountRequest, int, error) {
	q := r.URL.Query()
	if !q.Has("amount") {
		return nil, http.StatusBadRequest, errors.New("missing params")
	}

	return &dto.AmountRequest{Amount: q.Get("amount")}, 0, nil
}

// SettingsRequestValidate validates /quote/settings request and returns dto.
func SettingsRequestValidate(r *http.Request) (*dto.SettingsRequest, int, error) {
	q := r.URL.Query()
	req := &dto.SettingsRequest{}

	var err error
	if req.SlippageBps, err = optionalUint32(q, "slippage_bps"); err != nil {
		return nil, http.StatusBadRequest, err
	}
	if req.DeadlineMinutes, err = optionalUint32(q, "deadline_minutes"); err != nil {
		return nil, http.StatusBadRequest, err
	}
	if q.Has("excluded_sources") {
		req.SetExcluded = true
		for _, src := range strings.Split(q.Get("excluded_sources"), ",") {
			if src = strings.TrimSpace(src); src != "" {
				req.ExcludedSources = append(req.ExcludedSources, src)
			}
		}
	}

	if req.SlippageBps == nil && req.DeadlineMinutes == nil && !req.SetExcluded {
		return nil, http.StatusBadRequest, errors.New("missing params")
	}

	return req, 0, nil
}

func optionalAddress(q url.Values, key string) (*common.Address, error) {
	if !q.Has(key) {
		return nil, nil
	}
	v := q.Get(key)
	if !common.IsHexAddress(v) {
		return nil, errors.Errorf("bad %s address format", key)
	}
	addr := common.HexToAddress(v)
	return &addr, nil
}

func optionalUint32(q url.Values, key string) (*uint32, error) {
	if !q.Has(key) {
		return nil, nil
	}
	n, err := strconv.ParseUint(q.Get(key), 10, 32)
	if err != nil {
		return nil, errors.Errorf("bad %s", key)
	}
	v := uint32(n)
	return &v, nil
}
