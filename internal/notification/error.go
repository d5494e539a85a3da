package notification

import "builders-pos/internal/apperr"

var ErrNotificationNotFound = apperr.New(apperr.KindNotFound, "notification not found")
