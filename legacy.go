// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package ibverbs

import "fmt"

// ExecuteLegacy executes the command in cmd, appending the driver specific
// parts of a legacy fixed layout command and response structure.
//
// The len(req) - reqCommonLen bytes of req that follow its common prefix are
// appended as a AttrUHWIn attribute, and the len(resp) - respCommonLen bytes
// of resp that follow its common prefix are appended as a AttrUHWOut
// attribute that the kernel writes to. No attribute is appended for a
// structure that has no driver specific part. The command is then executed
// with Execute.
//
// The buffer must have space for the extra attributes, see
// NewLegacyCommandBuffer.
func (c *Context) ExecuteLegacy(cmd *CommandBuffer, req []byte, reqCommonLen int, resp []byte, respCommonLen int) error {
	if reqCommonLen < 0 || reqCommonLen > len(req) {
		panic(fmt.Sprintf("invalid common request length %d for request of %d bytes", reqCommonLen, len(req)))
	}
	if respCommonLen < 0 || respCommonLen > len(resp) {
		panic(fmt.Sprintf("invalid common response length %d for response of %d bytes", respCommonLen, len(resp)))
	}

	if reqCommonLen < len(req) {
		cmd.FillIn(AttrUHWIn, req[reqCommonLen:])
	}
	if respCommonLen < len(resp) {
		cmd.FillOut(AttrUHWOut, resp[respCommonLen:])
	}

	return c.Execute(cmd)
}
