package account

import (
	"log/slog"

	"github.com/jinzhu/copier"

	"github.com/tendant/simple-account/pkg/accountstore"
)

// ViewMapper converts a store-native user into the external account view.
// Each manager instance carries its own mapper; there is no process-wide
// mapping configuration.
type ViewMapper func(user accountstore.User) AccountView

// DefaultViewMapper copies matching fields and normalizes the ID. The
// password field is left blank on every read path.
func DefaultViewMapper(user accountstore.User) AccountView {
	var view AccountView
	if err := copier.Copy(&view, &user); err != nil {
		slog.Error("Failed to map user to account view", "err", err, "userId", user.ID)
	}
	view.ID = user.ID.String()
	view.Password = ""
	return view
}
