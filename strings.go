// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package ibverbs

import (
	"fmt"
	"strings"
)

func (o ObjectID) String() string {
	switch o {
	case ObjectDevice:
		return "UVERBS_OBJECT_DEVICE"
	case ObjectPD:
		return "UVERBS_OBJECT_PD"
	case ObjectCompChannel:
		return "UVERBS_OBJECT_COMP_CHANNEL"
	case ObjectCQ:
		return "UVERBS_OBJECT_CQ"
	case ObjectQP:
		return "UVERBS_OBJECT_QP"
	case ObjectSRQ:
		return "UVERBS_OBJECT_SRQ"
	case ObjectAH:
		return "UVERBS_OBJECT_AH"
	case ObjectMR:
		return "UVERBS_OBJECT_MR"
	case ObjectMW:
		return "UVERBS_OBJECT_MW"
	case ObjectFlow:
		return "UVERBS_OBJECT_FLOW"
	case ObjectFlowAction:
		return "UVERBS_OBJECT_FLOW_ACTION"
	case ObjectXRCD:
		return "UVERBS_OBJECT_XRCD"
	case ObjectRWQIndTbl:
		return "UVERBS_OBJECT_RWQ_IND_TBL"
	case ObjectWQ:
		return "UVERBS_OBJECT_WQ"
	default:
		return fmt.Sprintf("0x%04x", uint16(o))
	}
}

func (a AttrID) String() string {
	switch a {
	case AttrUHWIn:
		return "UVERBS_UHW_IN"
	case AttrUHWOut:
		return "UVERBS_UHW_OUT"
	default:
		return fmt.Sprintf("0x%04x", uint16(a))
	}
}

func (f AttrFlags) String() string {
	var s []string
	if f&AttrFlagMandatory != 0 {
		s = append(s, "MANDATORY")
	}
	if f&AttrFlagValidOutput != 0 {
		s = append(s, "VALID_OUTPUT")
	}
	if rest := f &^ (AttrFlagMandatory | AttrFlagValidOutput); rest != 0 {
		s = append(s, fmt.Sprintf("0x%04x", uint16(rest)))
	}
	if len(s) == 0 {
		return "0"
	}
	return strings.Join(s, "|")
}

func (d DriverID) String() string {
	switch d {
	case DriverUnknown:
		return "unknown"
	case DriverMLX5:
		return "mlx5"
	case DriverMLX4:
		return "mlx4"
	case DriverCXGB3:
		return "cxgb3"
	case DriverCXGB4:
		return "cxgb4"
	case DriverMTHCA:
		return "mthca"
	case DriverBNXTRE:
		return "bnxt_re"
	case DriverOCRDMA:
		return "ocrdma"
	case DriverNES:
		return "nes"
	case DriverI40IW:
		return "i40iw"
	case DriverVMWPVRDMA:
		return "vmw_pvrdma"
	case DriverQEDR:
		return "qedr"
	case DriverHNS:
		return "hns"
	case DriverUSNIC:
		return "usnic"
	case DriverRXE:
		return "rxe"
	case DriverHFI1:
		return "hfi1"
	case DriverQIB:
		return "qib"
	default:
		return fmt.Sprintf("driver(%d)", uint32(d))
	}
}
