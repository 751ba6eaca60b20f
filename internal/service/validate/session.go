package validate

import (
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/fleshka4/swap-widget/internal/apperrors"
	"github.com/fleshka4/swap-widget/internal/dexmath"
	"github.com/fleshka4/swap-widget/internal/service/dto"
)

// maxDeadlineMinutes keeps deadlines within a day.
const maxDeadlineMinutes = 24 * 60

// TokensRequestValidate validates a pair selection.
func TokensRequestValidate(req dto.TokensRequest) error {
	var zeroAddress = common.Address{}

	if req.TokenIn == nil && req.TokenOut == nil {
		return errors.Wrap(apperrors.ErrInvalidArgument, "no token selected")
	}

	if (req.TokenIn != nil && *req.TokenIn == zeroAddress) || (req.TokenOut != nil && *req.TokenOut == zeroAddress) {
		return errors.Wrap(apperrors.ErrInvalidArgument, "token address cannot be empty")
	}

	return nil
}

// SettingsRequestValidate validates quote settings. Excluded sources must be
// among known when known is not empty.
func SettingsRequestValidate(req dto.SettingsRequest, known []string) error {
	if req.SlippageBps != nil && *req.SlippageBps > dexmath.BpsDenominator {
		return errors.Wrapf(apperrors.ErrInvalidArgument, "slippage %d bps above 100%%", *req.SlippageBps)
	}

	if req.DeadlineMinutes != nil && (*req.DeadlineMinutes == 0 || *req.DeadlineMinutes > maxDeadlineMinutes) {
		return errors.Wrapf(apperrors.ErrInvalidArgument, "deadline must be between 1 and %d minutes", maxDeadlineMinutes)
	}

	if req.SetExcluded && len(known) > 0 {
		for _, src := range req.ExcludedSources {
			if !slices.Contains(known, src) {
				return errors.Wrapf(apperrors.ErrInvalidArgument, "unknown liquidity source %q", src)
			}
		}
	}

	return nil
}
