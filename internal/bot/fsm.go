package bot

import (
	"fmt"

	"github.com/m3rciful/shopbot/core/telegram/format"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/internal/shop"

	tele "gopkg.in/telebot.v4"
)

// InProgress reports whether userID has a pending dialogue.
func (h *Handlers) InProgress(userID int64) bool {
	return h.svc.Session(userID).Pending()
}

// ManagerHandler feeds free text into the pending dialogue.
func (h *Handlers) ManagerHandler(c tele.Context) error {
	ctx, uid := h.ctx(c)
	res, err := h.svc.HandleText(ctx, uid, c.Text())
	if err != nil {
		return h.fail(c, err)
	}

	var text string
	switch res.Outcome {
	case shop.Cancelled:
		text = "❌ Cancelled"
	case shop.ProductCreated:
		text = fmt.Sprintf("✅ Product <b>%s</b> added (#%d)", format.HTML(res.Product.Name), res.Product.ID)
	case shop.ProductUpdated:
		text = "✅ Product updated\n\n" + h.r.adminProduct(*res.Product)
	case shop.BroadcastDone:
		text = h.r.broadcastReport(res.Report)
	default:
		// The session expired between routing and handling.
		return h.UnknownText(c)
	}
	return tghelpers.SendHTML(c, text, h.menuFor(c))
}
