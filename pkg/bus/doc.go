/*
Package bus implements the named publish/subscribe notification channel.

Publishing a value under a name delivers it synchronously to every subscriber
currently attached under that same name. Subscribers attach from the moment of
subscription onward; past values are never replayed. Within one name delivery
order equals publish order. Nothing is guaranteed across names.

Topics are created lazily on first use and are never torn down; subscribers
release themselves with the CancelFunc returned by Subscribe. Default returns the
process-wide bus used when callers do not inject their own.
*/
package bus
