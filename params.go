// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package ibverbs

// ParamCounter returns the number of attributes used by the core part of the
// specified method. It is used to size command buffers that also carry a
// dynamic number of driver specific attributes.
type ParamCounter func(object ObjectID, method MethodID) int

type methodKey struct {
	object ObjectID
	method MethodID
}

var methodParamCounts = map[methodKey]int{
	{ObjectCQ, MethodCQCreate}:                    7,
	{ObjectCQ, MethodCQDestroy}:                   2,
	{ObjectFlowAction, MethodFlowActionESPCreate}: 6,
	{ObjectFlowAction, MethodFlowActionDestroy}:   1,
	{ObjectFlowAction, MethodFlowActionESPModify}: 6,
}

// DefaultParamCounter is a ParamCounter for the methods known to this
// package. It returns 0 for any other method.
func DefaultParamCounter(object ObjectID, method MethodID) int {
	return methodParamCounts[methodKey{object, method}]
}
