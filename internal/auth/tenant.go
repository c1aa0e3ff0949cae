package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/aldoetobex/lawcase-backend/internal/tenant"
	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
)

// ResolveFirm finds the firm a data request is scoped to and applies the
// plan gate. The firm code comes from the request; when it is empty the
// token's firm is used. A token for a different firm is rejected.
func ResolveFirm(c *fiber.Ctx, tx *gorm.DB, code string) (*models.Firm, error) {
	return resolveFirm(c.UserContext(), ClaimsFrom(c), tx, code)
}

func resolveFirm(ctx context.Context, claims *Claims, tx *gorm.DB, code string) (*models.Firm, error) {
	code = strings.TrimSpace(code)

	var (
		firm *models.Firm
		err  error
	)
	switch {
	case code != "":
		firm, err = tenant.ResolveByCode(ctx, tx, code)
	case claims != nil:
		firm, err = tenant.ResolveByID(ctx, tx, claims.FirmID)
	default:
		return nil, apperr.Invalid("firm_code", "This field is required")
	}
	if err != nil {
		return nil, err
	}
	if claims != nil && claims.FirmID != firm.ID {
		return nil, apperr.Forbidden("token does not belong to this firm")
	}
	if !tenant.HasAccess(firm) {
		return nil, apperr.Forbidden("plan required")
	}
	return firm, nil
}
