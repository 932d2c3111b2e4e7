package payment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vendora/storefront/checkout/internal/otel"
	inErrors "github.com/vendora/storefront/internal/errors"
	"github.com/vendora/storefront/internal/log"
)

type Mode string

const (
	ModePopup    Mode = "popup"
	ModeRedirect Mode = "redirect"
)

// Opener decides how the hosted checkout is presented. The popup path records
// window state for the watcher to poll; when the browser reports no window
// handle came back, the mandatory fallback is a full-page redirect and no
// watcher runs, since the return trip then goes through the callback page.
type Opener struct {
	windows *WindowStore
}

func NewOpener(windows *WindowStore) *Opener {
	return &Opener{windows: windows}
}

func (o *Opener) Open(
	c context.Context,
	sessionID string,
	reference string,
	popupAvailable bool,
) (Mode, Handle, error) {
	c, span := otel.Tracer.Start(c, "Opener Open")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Opener Open").
		Str(log.KeySessionID, sessionID).
		Str(log.KeyReference, reference).
		Logger()

	if !popupAvailable {
		logger.Warn().Msg("popup unavailable, falling back to full page redirect")
		return ModeRedirect, nil, nil
	}

	if err := o.windows.Open(c, sessionID, reference); err != nil {
		err = fmt.Errorf("failed opening payment window with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", nil, err
	}
	logger.Info().Msg("opened payment window")

	return ModePopup, o.windows.Handle(c, sessionID, reference), nil
}
