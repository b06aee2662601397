// Package param describes automatable processor parameters.
//
// Every processor declares its parameters with a [Descriptor]: a stable name,
// a default, an inclusive range and an automation rate. Audio-rate ([ARate])
// parameters may change on every sample; control-rate ([KRate]) parameters
// hold one value per processing block.
//
// A block of parameter values is carried as [Values]: either a single value
// for the whole block or one value per output sample.
package param
