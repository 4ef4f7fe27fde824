package client

import (
	"context"
	"time"

	"github.com/iamruinous/meshcore-go/pkg/meshcore"
)

// AdvertFlags selects self-advertisement behaviour.
type AdvertFlags uint8

const (
	AdvertZeroHop AdvertFlags = 0
	AdvertFlood   AdvertFlags = 1
)

// SendSelfAdvert issues CMD_SEND_SELF_ADVERT.
func (c *Client) SendSelfAdvert(ctx context.Context, flags AdvertFlags) error {
	body := []byte{byte(flags)}
	f, err := c.sendCommand(ctx, meshcore.CmdSendSelfAdvert, body)
	if err != nil {
		return err
	}
	if f.Code() == meshcore.RespCodeErr {
		return checkErr(meshcore.CmdSendSelfAdvert, body, f)
	}
	if f.Code() != meshcore.RespCodeOk && f.Code() != meshcore.RespCodeSent {
		return unexpectedCode(meshcore.CmdSendSelfAdvert, f)
	}
	return nil
}

// GetAdvertPath issues CMD_GET_ADVERT_PATH, returning the path the
// last-seen advertisement for this device took.
func (c *Client) GetAdvertPath(ctx context.Context) (meshcore.AdvertPath, error) {
	f, err := c.sendCommand(ctx, meshcore.CmdGetAdvertPath, nil)
	if err != nil {
		return meshcore.AdvertPath{}, err
	}
	return dispatch(meshcore.CmdGetAdvertPath, nil, f, meshcore.RespCodeAdvertPath, func(payload []byte) (meshcore.AdvertPath, error) {
		return meshcore.DecodeAdvertPath(payload[1:])
	})
}

// twoPhaseWait computes the second-phase deadline from a SentAck's
// suggested timeout and multiplier, then waits for a push frame
// matching match.
func (c *Client) twoPhaseWait(ctx context.Context, ack SentAck, multiplier float64, match func(meshcore.Frame) bool) (meshcore.Frame, error) {
	waitCtx := ctx
	if ack.HasSuggestedTimeout {
		var cancel context.CancelFunc
		d := time.Duration(float64(ack.SuggestedTimeoutMs)*multiplier) * time.Millisecond
		waitCtx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	return c.t.AwaitPush(waitCtx, match)
}

// DiscoverPath issues CMD_SEND_PATH_DISCOVERY_REQ for targetKey (32
// bytes), then waits for the resulting RESP_CODE_PATH_RESPONSE
// (two-phase, spec.md §4.3).
func (c *Client) DiscoverPath(ctx context.Context, targetKey [meshcore.PublicKeySize]byte) (meshcore.PathDiscoveryResult, error) {
	f, err := c.sendCommand(ctx, meshcore.CmdSendPathDiscoveryReq, targetKey[:])
	if err != nil {
		return meshcore.PathDiscoveryResult{}, err
	}
	if f.Code() == meshcore.RespCodeErr {
		return meshcore.PathDiscoveryResult{}, checkErr(meshcore.CmdSendPathDiscoveryReq, targetKey[:], f)
	}
	if f.Code() != meshcore.RespCodeSent {
		return meshcore.PathDiscoveryResult{}, unexpectedCode(meshcore.CmdSendPathDiscoveryReq, f)
	}

	ack := decodeSentAck(f.Payload)
	final, err := c.twoPhaseWait(ctx, ack, pathDiscoveryTimeoutMultiplier, func(pf meshcore.Frame) bool {
		return pf.Code() == meshcore.RespCodePathResponse
	})
	if err != nil {
		return meshcore.PathDiscoveryResult{}, err
	}
	return meshcore.DecodePathDiscoveryResult(final.Payload[1:])
}

// TracePath issues CMD_SEND_TRACE_PATH for a single hop, two-phase.
func (c *Client) TracePath(ctx context.Context, p meshcore.SendTracePathParams) (meshcore.PathDiscoveryResult, error) {
	body := meshcore.EncodeSendTracePathParams(p)
	f, err := c.sendCommand(ctx, meshcore.CmdSendTracePath, body)
	if err != nil {
		return meshcore.PathDiscoveryResult{}, err
	}
	if f.Code() == meshcore.RespCodeErr {
		return meshcore.PathDiscoveryResult{}, checkErr(meshcore.CmdSendTracePath, body, f)
	}
	if f.Code() != meshcore.RespCodeSent {
		return meshcore.PathDiscoveryResult{}, unexpectedCode(meshcore.CmdSendTracePath, f)
	}

	ack := decodeSentAck(f.Payload)
	final, err := c.twoPhaseWait(ctx, ack, tracePathTimeoutMultiplier, func(pf meshcore.Frame) bool {
		return pf.Code() == meshcore.PushCodeTraceData
	})
	if err != nil {
		return meshcore.PathDiscoveryResult{}, err
	}
	return meshcore.DecodePathDiscoveryResult(final.Payload[1:])
}

// RequestNeighbours issues CMD_SEND_NEIGHBOURS_REQ, two-phase.
func (c *Client) RequestNeighbours(ctx context.Context) (meshcore.NeighbourList, error) {
	f, err := c.sendCommand(ctx, meshcore.CmdSendNeighboursReq, nil)
	if err != nil {
		return meshcore.NeighbourList{}, err
	}
	if f.Code() == meshcore.RespCodeErr {
		return meshcore.NeighbourList{}, checkErr(meshcore.CmdSendNeighboursReq, nil, f)
	}
	if f.Code() != meshcore.RespCodeSent {
		return meshcore.NeighbourList{}, unexpectedCode(meshcore.CmdSendNeighboursReq, f)
	}

	ack := decodeSentAck(f.Payload)
	final, err := c.twoPhaseWait(ctx, ack, neighboursTimeoutMultiplier, func(pf meshcore.Frame) bool {
		if pf.Code() != meshcore.PushCodeBinaryResponse {
			return false
		}
		br, decErr := meshcore.DecodeBinaryResponse(pf.Payload)
		return decErr == nil && br.Tag == ack.Tag
	})
	if err != nil {
		return meshcore.NeighbourList{}, err
	}
	return meshcore.DecodeNeighbourList(final.Payload)
}

// RequestStatus issues CMD_SEND_STATUS_REQ, two-phase.
func (c *Client) RequestStatus(ctx context.Context) (meshcore.StatusInfo, error) {
	f, err := c.sendCommand(ctx, meshcore.CmdSendStatusReq, nil)
	if err != nil {
		return meshcore.StatusInfo{}, err
	}
	if f.Code() == meshcore.RespCodeErr {
		return meshcore.StatusInfo{}, checkErr(meshcore.CmdSendStatusReq, nil, f)
	}
	if f.Code() != meshcore.RespCodeSent {
		return meshcore.StatusInfo{}, unexpectedCode(meshcore.CmdSendStatusReq, f)
	}

	ack := decodeSentAck(f.Payload)
	final, err := c.twoPhaseWait(ctx, ack, pathDiscoveryTimeoutMultiplier, func(pf meshcore.Frame) bool {
		return pf.Code() == meshcore.PushCodeStatusResponse
	})
	if err != nil {
		return meshcore.StatusInfo{}, err
	}
	return meshcore.DecodeStatusInfo(final.Payload[1:])
}
