// Package processor exposes the filters and the chorus behind one block
// processing contract so a host can build them by identifier.
//
// Every processor declares its parameters as [param.Descriptor] values.
// Per block the host passes one [param.Values] per parameter it wants to
// change; parameters that are left out keep their current value.
package processor
