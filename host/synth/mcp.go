package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"

	"synthmidi/core"
	"synthmidi/storage"
)

// NewMCPServer exposes the synth operations as MCP tools
func NewMCPServer(s *Synth, version string) *server.MCPServer {
	srv := server.NewMCPServer(
		"synthctl",
		version,
		server.WithToolCapabilities(false),
	)

	srv.AddTool(mcp.NewTool("synth_describe-map",
		mcp.WithDescription("Returns the synthesizer MIDI map: CC ranges, parameter counts, stepped widths and sysex identifier."),
	), s.handleDescribeMap)

	srv.AddTool(mcp.NewTool("synth_control-change",
		mcp.WithDescription("Sends a MIDI control change to the synthesizer."),
		mcp.WithNumber("channel", mcp.Required(), mcp.Description("MIDI channel, 0-15.")),
		mcp.WithNumber("control", mcp.Required(), mcp.Description("Controller number, 0-127. Controller 0 switches manual (0) and preset (1) mode.")),
		mcp.WithNumber("value", mcp.Required(), mcp.Description("Controller value, 0-127.")),
	), s.handleControlChange)

	srv.AddTool(mcp.NewTool("synth_program-change",
		mcp.WithDescription("Selects a stored preset. Only honoured in preset mode."),
		mcp.WithNumber("channel", mcp.Required(), mcp.Description("MIDI channel, 0-15.")),
		mcp.WithNumber("program", mcp.Required(), mcp.Description("Preset number, 0-99.")),
	), s.handleProgramChange)

	srv.AddTool(mcp.NewTool("synth_set-parameter",
		mcp.WithDescription("Sets a continuous sound parameter with 14-bit resolution using a coarse and a fine control change."),
		mcp.WithNumber("channel", mcp.Required(), mcp.Description("MIDI channel, 0-15.")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Continuous parameter index.")),
		mcp.WithNumber("value", mcp.Required(), mcp.Description("Parameter value, 0-16383.")),
	), s.handleSetParameter)

	srv.AddTool(mcp.NewTool("synth_push-bank",
		mcp.WithDescription("Sends every preset stored in a bank directory to the synthesizer."),
		mcp.WithString("dir", mcp.Required(), mcp.Description("Bank directory holding preset-NN.bin files.")),
	), s.handlePushBank)

	srv.AddTool(mcp.NewTool("synth_capture-bank",
		mcp.WithDescription("Listens for a preset dump from the synthesizer and saves it to a bank directory."),
		mcp.WithString("dir", mcp.Required(), mcp.Description("Bank directory to write.")),
		mcp.WithNumber("seconds", mcp.Required(), mcp.Description("How long to listen.")),
	), s.handleCaptureBank)

	return srv
}

// ServeMCP runs the MCP server on stdin/stdout until the client disconnects
func ServeMCP(s *Synth, version string) error {
	s.log.Info("Starting MCP server")
	return server.ServeStdio(NewMCPServer(s, version))
}

func (s *Synth) handleDescribeMap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	asJSON, err := json.MarshalIndent(describeMap(s.cfg), "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal MIDI map")
	}
	return mcp.NewToolResultText(string(asJSON)), nil
}

func (s *Synth) handleControlChange(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	channel, err := request.RequireInt("channel")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	control, err := request.RequireInt("control")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := request.RequireInt("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !dataByte(channel, 15) || !dataByte(control, 127) || !dataByte(value, 127) {
		return mcp.NewToolResultError("channel, control or value out of range"), nil
	}

	if err := s.SendControlChange(uint8(channel), uint8(control), uint8(value)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("CC %d = %d sent on channel %d.", control, value, channel)), nil
}

func (s *Synth) handleProgramChange(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	channel, err := request.RequireInt("channel")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	program, err := request.RequireInt("program")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !dataByte(channel, 15) || !dataByte(program, int(s.cfg.ProgramLimit)-1) {
		return mcp.NewToolResultError("channel or program out of range"), nil
	}

	if err := s.SendProgramChange(uint8(channel), uint8(program)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Program %d selected on channel %d.", program, channel)), nil
}

func (s *Synth) handleSetParameter(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	channel, err := request.RequireInt("channel")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	index, err := request.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := request.RequireInt("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !dataByte(channel, 15) || !dataByte(value, 0x3FFF) {
		return mcp.NewToolResultError("channel or value out of range"), nil
	}

	if err := s.SetParameter(uint8(channel), index, uint16(value)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Parameter %d set to %d.", index, value)), nil
}

func (s *Synth) handlePushBank(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := request.RequireString("dir")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	bank, err := storage.OpenFileBank(dir, core.NewPreset(s.cfg))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sent, err := s.PushBank(bank, DefaultFrameGap)
	if err != nil {
		return nil, errors.Wrapf(err, "push bank after %d presets", sent)
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d presets sent.", sent)), nil
}

func (s *Synth) handleCaptureBank(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := request.RequireString("dir")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	seconds, err := request.RequireFloat("seconds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if seconds <= 0 {
		return mcp.NewToolResultError("seconds must be positive"), nil
	}

	bank, err := storage.OpenFileBank(dir, core.NewPreset(s.cfg))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	n, err := s.Capture(ctx, bank, bank, time.Duration(seconds*float64(time.Second)))
	if err != nil {
		return nil, errors.Wrapf(err, "capture after %d presets", n)
	}
	if err := bank.LastErr(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d presets captured into %s.", n, dir)), nil
}

// mapView is the JSON shape of the MIDI map, with byte lists as numbers
type mapView struct {
	ReceiveChannel int8   `json:"receiveChannel"`
	CoarseCC       [2]int `json:"coarseCC"`
	FineCC         [2]int `json:"fineCC"`
	SteppedCC      [2]int `json:"steppedCC"`
	SteppedBits    []int  `json:"steppedBits"`
	BaseNote       uint8  `json:"baseNote"`
	ProgramLimit   uint8  `json:"programLimit"`
	SysexID        []int  `json:"sysexID"`
}

func describeMap(cfg *core.MIDIConfig) mapView {
	v := mapView{
		ReceiveChannel: cfg.ReceiveChannel,
		CoarseCC:       [2]int{int(cfg.BaseCoarseCC), int(cfg.BaseCoarseCC) + cfg.ContinuousCount - 1},
		FineCC:         [2]int{int(cfg.BaseFineCC), int(cfg.BaseFineCC) + cfg.ContinuousCount - 1},
		SteppedCC:      [2]int{int(cfg.BaseSteppedCC), int(cfg.BaseSteppedCC) + cfg.SteppedCount() - 1},
		BaseNote:       cfg.BaseNote,
		ProgramLimit:   cfg.ProgramLimit,
	}
	for _, b := range cfg.SteppedBits {
		v.SteppedBits = append(v.SteppedBits, int(b))
	}
	for _, b := range cfg.SysexID {
		v.SysexID = append(v.SysexID, int(b))
	}
	return v
}

func dataByte(v, max int) bool {
	return v >= 0 && v <= max
}
