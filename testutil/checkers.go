// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package testutil

import (
	"fmt"
	"reflect"

	"golang.org/x/xerrors"

	. "gopkg.in/check.v1"
)

type isTrueChecker struct {
	*CheckerInfo
}

// IsTrue determines whether a boolean value is true.
var IsTrue Checker = &isTrueChecker{
	&CheckerInfo{Name: "IsTrue", Params: []string{"value"}}}

func (checker *isTrueChecker) Check(params []interface{}, names []string) (result bool, error string) {
	value, ok := params[0].(bool)
	if !ok {
		return false, names[0] + " is not a bool"
	}
	return value, ""
}

type isFalseChecker struct {
	*CheckerInfo
}

// IsFalse determines whether a boolean value is false.
var IsFalse Checker = &isFalseChecker{
	&CheckerInfo{Name: "IsFalse", Params: []string{"value"}}}

func (checker *isFalseChecker) Check(params []interface{}, names []string) (result bool, error string) {
	value, ok := params[0].(bool)
	if !ok {
		return false, names[0] + " is not a bool"
	}
	return !value, ""
}

type errorIsChecker struct {
	*CheckerInfo
}

// ErrorIs determines whether any error in a chain has a specific
// value, using xerrors.Is
//
// For example:
//
//	c.Check(err, ErrorIs, unix.EINVAL)
var ErrorIs Checker = &errorIsChecker{
	&CheckerInfo{Name: "ErrorIs", Params: []string{"value", "expected"}}}

func (checker *errorIsChecker) Check(params []interface{}, names []string) (result bool, errStr string) {
	err, ok := params[0].(error)
	if !ok {
		return false, "value is not an error"
	}

	expected, ok := params[1].(error)
	if !ok {
		return false, "expected is not an error"
	}

	return xerrors.Is(err, expected), ""
}

type errorAsChecker struct {
	*CheckerInfo
}

// ErrorAs determines whether any error in a chain has a specific
// type, using xerrors.As.
//
// For example:
//
//	var e *ibverbs.TransportError
//	c.Check(err, ErrorAs, &e)
//	c.Check(e.Op, Equals, "ioctl")
var ErrorAs Checker = &errorAsChecker{
	&CheckerInfo{Name: "ErrorAs", Params: []string{"value", "target"}}}

func (checker *errorAsChecker) Check(params []interface{}, names []string) (result bool, errStr string) {
	err, ok := params[0].(error)
	if !ok {
		return false, "value is not an error"
	}

	return xerrors.As(err, params[1]), ""
}

type panicsAsChecker struct {
	*CheckerInfo
}

// PanicsAs determines whether a function panics with a value that can be
// assigned to the value pointed to by target, and assigns it.
//
// For example:
//
//	var e *ibverbs.CapacityExceededError
//	c.Check(func() { cmd.FillUint32(1, 0) }, PanicsAs, &e)
//	c.Check(e.Capacity, Equals, 1)
var PanicsAs Checker = &panicsAsChecker{
	&CheckerInfo{Name: "PanicsAs", Params: []string{"function", "target"}}}

func (checker *panicsAsChecker) Check(params []interface{}, names []string) (result bool, errStr string) {
	fn := reflect.ValueOf(params[0])
	if fn.Kind() != reflect.Func || fn.Type().NumIn() != 0 {
		return false, "function must take no arguments"
	}

	target := reflect.ValueOf(params[1])
	if target.Kind() != reflect.Ptr || target.IsNil() {
		return false, "target must be a non-nil pointer"
	}

	defer func() {
		if errStr != "" {
			return
		}
		value := recover()
		if value == nil {
			result, errStr = false, "function did not panic"
			return
		}
		v := reflect.ValueOf(value)
		if !v.Type().AssignableTo(target.Elem().Type()) {
			result, errStr = false, fmt.Sprintf("function panicked with unexpected value %#v", value)
			return
		}
		target.Elem().Set(v)
		result = true
	}()
	fn.Call(nil)
	return false, ""
}
