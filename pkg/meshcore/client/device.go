package client

import (
	"context"
	"encoding/binary"

	"github.com/iamruinous/meshcore-go/pkg/meshcore"
)

// QueryDeviceInfo issues CMD_DEVICE_QUERY and decodes the device's
// identity record.
func (c *Client) QueryDeviceInfo(ctx context.Context) (meshcore.DeviceInfo, error) {
	f, err := c.sendCommand(ctx, meshcore.CmdDeviceQuery, nil)
	if err != nil {
		return meshcore.DeviceInfo{}, err
	}
	return dispatch(meshcore.CmdDeviceQuery, nil, f, meshcore.RespCodeDeviceInfo, func(payload []byte) (meshcore.DeviceInfo, error) {
		return meshcore.DecodeDeviceInfo(payload[1:])
	})
}

// GetDeviceTime issues CMD_GET_DEVICE_TIME and returns the device's
// current Unix time in seconds.
func (c *Client) GetDeviceTime(ctx context.Context) (uint32, error) {
	f, err := c.sendCommand(ctx, meshcore.CmdGetDeviceTime, nil)
	if err != nil {
		return 0, err
	}
	return dispatch(meshcore.CmdGetDeviceTime, nil, f, meshcore.RespCodeCurrTime, func(payload []byte) (uint32, error) {
		if len(payload) < 5 {
			return 0, &meshcore.CodecError{RecordType: "CurrTime", Length: len(payload), Reason: "short record"}
		}
		return binary.LittleEndian.Uint32(payload[1:5]), nil
	})
}

// SetDeviceTime issues CMD_SET_DEVICE_TIME with a Unix time in seconds.
func (c *Client) SetDeviceTime(ctx context.Context, unixSecs uint32) error {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint32(body, unixSecs)

	f, err := c.sendCommand(ctx, meshcore.CmdSetDeviceTime, body)
	if err != nil {
		return err
	}
	if f.Code() == meshcore.RespCodeErr {
		return checkErr(meshcore.CmdSetDeviceTime, body, f)
	}
	if f.Code() != meshcore.RespCodeOk {
		return unexpectedCode(meshcore.CmdSetDeviceTime, f)
	}
	return nil
}

// Reboot issues CMD_REBOOT. The device does not reliably reply before
// resetting, so callers should not depend on the returned error being
// populated from a real device response.
func (c *Client) Reboot(ctx context.Context) error {
	f, err := c.sendCommand(ctx, meshcore.CmdReboot, nil)
	if err != nil {
		return err
	}
	if f.Code() == meshcore.RespCodeErr {
		return checkErr(meshcore.CmdReboot, nil, f)
	}
	return nil
}

// GetBattAndStorage issues CMD_GET_BATT_AND_STORAGE.
func (c *Client) GetBattAndStorage(ctx context.Context) (meshcore.BattAndStorage, error) {
	f, err := c.sendCommand(ctx, meshcore.CmdGetBattAndStorage, nil)
	if err != nil {
		return meshcore.BattAndStorage{}, err
	}
	return dispatch(meshcore.CmdGetBattAndStorage, nil, f, meshcore.RespCodeBattAndStorage, func(payload []byte) (meshcore.BattAndStorage, error) {
		return meshcore.DecodeBattAndStorage(payload[1:])
	})
}

// GetRadioStats issues CMD_GET_STATS and decodes the radio stats body,
// which follows a 1-byte stats_type selector after the response code.
func (c *Client) GetRadioStats(ctx context.Context) (meshcore.RadioStats, error) {
	f, err := c.sendCommand(ctx, meshcore.CmdGetStats, nil)
	if err != nil {
		return meshcore.RadioStats{}, err
	}
	return dispatch(meshcore.CmdGetStats, nil, f, meshcore.RespCodeStats, func(payload []byte) (meshcore.RadioStats, error) {
		if len(payload) < 2 {
			return meshcore.RadioStats{}, &meshcore.CodecError{RecordType: "RadioStats", Length: len(payload), Reason: "missing stats_type"}
		}
		return meshcore.DecodeRadioStats(payload[2:])
	})
}

// SetRadioParams validates and issues CMD_SET_RADIO_PARAMS (spec.md
// §4.4: freq>0, bw>0, sf in [6,12], cr in [5,8]).
func (c *Client) SetRadioParams(ctx context.Context, p meshcore.RadioParams) error {
	if p.FreqKhz == 0 {
		return &meshcore.InvalidArgument{Name: "freq", Reason: "must be > 0"}
	}
	if p.BwKhz == 0 {
		return &meshcore.InvalidArgument{Name: "bw", Reason: "must be > 0"}
	}
	if p.SF < 6 || p.SF > 12 {
		return &meshcore.InvalidArgument{Name: "sf", Reason: "must be in [6,12]"}
	}
	if p.CR < 5 || p.CR > 8 {
		return &meshcore.InvalidArgument{Name: "cr", Reason: "must be in [5,8]"}
	}

	body := meshcore.EncodeRadioParams(p)
	f, err := c.sendCommand(ctx, meshcore.CmdSetRadioParams, body)
	if err != nil {
		return err
	}
	if f.Code() == meshcore.RespCodeErr {
		return checkErr(meshcore.CmdSetRadioParams, body, f)
	}
	if f.Code() != meshcore.RespCodeOk {
		return unexpectedCode(meshcore.CmdSetRadioParams, f)
	}
	return nil
}

// SetAdvertName validates and issues CMD_SET_ADVERT_NAME (spec.md §4.4:
// name <= 31 bytes UTF-8).
func (c *Client) SetAdvertName(ctx context.Context, name string) error {
	if len(name) == 0 || len(name) > 31 {
		return &meshcore.InvalidArgument{Name: "name", Reason: "must be 1..=31 bytes UTF-8"}
	}

	body := []byte(name)
	f, err := c.sendCommand(ctx, meshcore.CmdSetAdvertName, body)
	if err != nil {
		return err
	}
	if f.Code() == meshcore.RespCodeErr {
		return checkErr(meshcore.CmdSetAdvertName, body, f)
	}
	if f.Code() != meshcore.RespCodeOk {
		return unexpectedCode(meshcore.CmdSetAdvertName, f)
	}
	return nil
}
