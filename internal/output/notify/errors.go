package notify

import "errors"

var errPushRejected = errors.New("push ticket rejected")
