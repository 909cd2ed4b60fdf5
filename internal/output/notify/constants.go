package notify

import "time"

const (
	alertTitlePrefix = "Snoopa alert: "

	expoSound        = "default"
	expoDataTypeKey  = "type"
	expoDataItemKey  = "watch_item_id"
	expoStatusOK     = "ok"
	headerAccept     = "Accept"
	headerContent    = "Content-Type"
	headerAuth       = "Authorization"
	mimeJSON         = "application/json"
	bearerPrefix     = "Bearer "
	maxErrorBodySize = 4096

	defaultPushConcurrency = 4
	defaultPushTimeout     = 15 * time.Second

	pushStatusSent    = "sent"
	pushStatusFailed  = "failed"
	pushStatusNoToken = "no_token"

	logKeyUserID      = "user_id"
	logKeyWatchItemID = "watch_item_id"
)
