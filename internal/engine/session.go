// internal/engine/session.go
package engine

import (
	"context"

	"docassembly-workers/internal/common/errors"
	"docassembly-workers/internal/common/logger"
)

// IsCommunication reports a transport-level failure.
func IsCommunication(err error) bool {
	return errors.HasCode(err, errors.ErrCodeEngineCommunication)
}

// IsTimeout reports an engine call that ran out of time.
func IsTimeout(err error) bool {
	return errors.HasCode(err, errors.ErrCodeEngineTimeout)
}

// Call opens a session, runs fn and releases the session. A close failure
// aborts the session. Communication and timeout failures on close are only
// logged; anything else is returned, but never in place of fn's own error.
func Call[T any](ctx context.Context, client Client, log logger.Logger, operation string, fn func(Session) (T, error)) (result T, err error) {
	sess, err := client.Open(ctx)
	if err != nil {
		return result, err
	}

	defer func() {
		closeErr := sess.Close()
		if closeErr == nil {
			return
		}
		sess.Abort()

		fields := map[string]interface{}{
			"operation": operation,
			"error":     closeErr.Error(),
		}
		if IsCommunication(closeErr) || IsTimeout(closeErr) {
			log.Warn("engine session close failed, session aborted", fields)
			return
		}

		log.Error("unexpected error closing engine session, session aborted", fields)
		if err == nil {
			err = closeErr
		}
	}()

	return fn(sess)
}

// WithSession is Call for operations without a result.
func WithSession(ctx context.Context, client Client, log logger.Logger, operation string, fn func(Session) error) error {
	_, err := Call(ctx, client, log, operation, func(s Session) (struct{}, error) {
		return struct{}{}, fn(s)
	})
	return err
}
