// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package testutil

import (
	"github.com/canonical/go-ibverbs"

	. "gopkg.in/check.v1"
)

// BaseTest is a base test suite for all tests.
type BaseTest struct {
	cleanupHandlers        []func()
	fixtureCleanupHandlers []func(c *C)
}

func (b *BaseTest) SetUpTest(c *C) {
	if len(b.cleanupHandlers) > 0 || len(b.fixtureCleanupHandlers) > 0 {
		panic("cleanup handlers were not executed at the end of the previous test, missing BaseTest.TearDownTest call?")
	}
}

func (b *BaseTest) TearDownTest(c *C) {
	for len(b.cleanupHandlers) > 0 {
		l := len(b.cleanupHandlers)
		fn := b.cleanupHandlers[l-1]
		b.cleanupHandlers = b.cleanupHandlers[:l-1]
		fn()
	}

	for len(b.fixtureCleanupHandlers) > 0 {
		l := len(b.fixtureCleanupHandlers)
		fn := b.fixtureCleanupHandlers[l-1]
		b.fixtureCleanupHandlers = b.fixtureCleanupHandlers[:l-1]
		fn(c)
	}
}

// AddCleanup queues a function to be called at the end of the test.
func (b *BaseTest) AddCleanup(fn func()) {
	b.cleanupHandlers = append(b.cleanupHandlers, fn)
}

// AddFixtureCleanup queues a function to be called at the end of
// the test, and is intended to be called during SetUpTest. The
// function is called with the TearDownTest *check.C which allows
// failures to result in a fixture panic, as failures recorded to
// the originating *check.C are ignored at this stage.
func (b *BaseTest) AddFixtureCleanup(fn func(c *C)) {
	b.fixtureCleanupHandlers = append(b.fixtureCleanupHandlers, fn)
}

// ContextTest is a base test suite for tests that execute commands. A
// Context backed by a MockTransport is created for each test, and closed
// at the end of it.
type ContextTest struct {
	BaseTest

	// DriverID is the driver identity of the context. Set this before
	// SetUpTest is called.
	DriverID ibverbs.DriverID

	Transport *MockTransport
	Annotator *RecordingAnnotator
	Context   *ibverbs.Context
}

func (b *ContextTest) SetUpTest(c *C) {
	b.BaseTest.SetUpTest(c)

	b.Transport = NewMockTransport()
	b.Annotator = new(RecordingAnnotator)
	b.Context = ibverbs.NewContext(b.Transport, b.DriverID, ibverbs.WithMemoryAnnotator(b.Annotator))

	b.AddFixtureCleanup(func(c *C) {
		c.Check(b.Context.Close(), IsNil)
		b.Context = nil
		b.Transport = nil
		b.Annotator = nil
	})
}

// LastCommand returns a record of the last command that was submitted. It
// asserts if no command has been submitted.
func (b *ContextTest) LastCommand(c *C) *CommandRecord {
	c.Assert(b.Transport.CommandLog, Not(HasLen), 0)
	return b.Transport.LastCommand()
}

// ForgetCommands forgets the log of commands that have been submitted since
// the start of the test or since the last call to ForgetCommands.
func (b *ContextTest) ForgetCommands() {
	b.Transport.CommandLog = nil
}
