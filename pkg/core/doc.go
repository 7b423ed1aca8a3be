/*
Package core is the event-sourced state machine.

Producers publish reducers on a namespace with Dispatch. A Machine collects the
reducers published on its namespace and folds them, one at a time and in
delivery order, into a live value that subscribers observe.

	m := core.Init(domain.State{"count": 0}, "counter")
	defer m.Close()

	core.Dispatch(nil, "counter", domain.Reducer[domain.State](func(s domain.State) domain.State {
		return s.With(s["count"].(int)+1, "count")
	}))

Every Machine on the same namespace and bus observes every reducer published
there. That is how decoupled producers and consumers share one state.

A reducer that panics faults only the Machine applying it. That Machine keeps
its last state, reports the panic through Err and stops collecting. Other
Machines on the namespace still apply the reducer, and Dispatch returns normally.
*/
package core
