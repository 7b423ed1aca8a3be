/*
Package stream provides the hot, multi-subscriber sequences used by Arbor.

  - Subject: broadcasts every value to the subscribers attached at the time of
    delivery. There is no replay.
  - Value: holds a current value. Subscribers first receive the current value
    and then every subsequent one. Updates are folds applied in order.

Delivery is synchronous in the goroutine that publishes. A publish issued while
a delivery is running (from a subscriber, or from another goroutine) is queued
and delivered by the goroutine already draining, once the current delivery has
finished. This keeps delivery order equal to publish order and lets subscribers
publish without deadlocking.

Consumers that prefer channels can use Watch, which exposes the same sequence as
an unbounded channel that is closed when the context ends.
*/
package stream
