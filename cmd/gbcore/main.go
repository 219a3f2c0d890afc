// Command gbcore runs a cartridge ROM headlessly: no window, no audio
// device, just the core stepping frames until the --frames count is
// reached or the process is interrupted. It exists to exercise internal/gameboy
// end-to-end and as a reference host for internal/gameboy's capability
// interfaces.
//
// Grounded on _examples/valerio-go-jeebie's cmd entrypoint for the
// urfave/cli flag shape (ROM path positional argument, --bootrom,
// --mode), adapted to gbcore's headless (no GUI) scope.
package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/urfave/cli"

	"github.com/tidemark/gbcore/internal/allocator"
	"github.com/tidemark/gbcore/internal/boot"
	"github.com/tidemark/gbcore/internal/gameboy"
	"github.com/tidemark/gbcore/internal/joypad"
	"github.com/tidemark/gbcore/internal/log"
	"github.com/tidemark/gbcore/internal/ppu"
	"github.com/tidemark/gbcore/internal/romload"
	"github.com/tidemark/gbcore/internal/types"
)

func main() {
	app := cli.NewApp()
	app.Name = "gbcore"
	app.Usage = "run a Game Boy / Game Boy Color ROM headlessly"
	app.Version = "0.1.0"
	app.ArgsUsage = "<rom>"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "bootrom", Usage: "path to a boot ROM image (256 or 2304 bytes)"},
		cli.StringFlag{Name: "mode", Usage: "force hardware model: dmg or cgb (default: autodetect)"},
		cli.StringFlag{Name: "save", Usage: "battery RAM save file path (default: <rom>.sav)"},
		cli.IntFlag{Name: "frames", Usage: "stop after N frames (default: run until interrupted)"},
		cli.StringFlag{Name: "pcm-out", Usage: "write raw 16-bit LE stereo PCM to this path"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "gbcore:", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	romPath := ctx.Args().First()
	if romPath == "" {
		return cli.NewExitError("gbcore: a ROM path is required", 2)
	}

	logger := log.New()

	romImage, err := romload.Load(romPath)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	logger.Infof("gbcore: loaded %s (%d bytes, hash=%#x)", romPath, len(romImage), romload.Hash(romImage))

	opts := []gameboy.Option{gameboy.WithLogger(logger)}

	switch ctx.String("mode") {
	case "dmg":
		opts = append(opts, gameboy.WithModel(types.DMG))
	case "cgb":
		opts = append(opts, gameboy.WithModel(types.CGB))
	case "":
	default:
		return cli.NewExitError(fmt.Sprintf("gbcore: unknown --mode %q (want dmg or cgb)", ctx.String("mode")), 2)
	}

	if bootPath := ctx.String("bootrom"); bootPath != "" {
		bootImage, err := romload.Load(bootPath)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		bootROM, err := boot.Load(bootImage)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		opts = append(opts, gameboy.WithBootROM(bootROM))
	}

	savePath := ctx.String("save")
	if savePath == "" {
		savePath = romPath + ".sav"
	}
	sink := &headlessSink{}
	opts = append(opts, gameboy.WithGraphicsSink(sink), gameboy.WithInputSource(sink))

	if pcmPath := ctx.String("pcm-out"); pcmPath != "" {
		pcmFile, err := os.Create(pcmPath)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		defer pcmFile.Close()
		opts = append(opts, gameboy.WithAudioSink(newPCMWriter(pcmFile)))
	} else {
		opts = append(opts, gameboy.WithAudioSink(sink))
	}

	machine, err := gameboy.New(romImage, opts...)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	if saveData, err := os.ReadFile(savePath); err == nil {
		if err := machine.LoadBatteryRAM(saveData); err != nil {
			logger.Errorf("gbcore: discarding save file %s: %v", savePath, err)
		} else {
			logger.Infof("gbcore: restored battery RAM from %s", savePath)
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	maxFrames := ctx.Int("frames")
	for frames := 0; maxFrames == 0 || frames < maxFrames; frames++ {
		select {
		case <-interrupt:
			logger.Infof("gbcore: interrupted after %d frames", frames)
			return persistBatteryRAM(machine, savePath)
		default:
		}
		machine.RunFrame()
	}

	return persistBatteryRAM(machine, savePath)
}

func persistBatteryRAM(machine *gameboy.Machine, savePath string) error {
	data := machine.BatteryRAM()
	if data == nil {
		return nil
	}
	if err := os.WriteFile(savePath, data, 0o644); err != nil {
		return cli.NewExitError(fmt.Sprintf("gbcore: writing save file: %v", err), 1)
	}
	return nil
}

// headlessSink discards presented frames and audio and reports no
// button input; it exists to give the core a full GraphicsSink/
// AudioSink/InputSource wiring with no window or audio device attached
// (spec §6's host-integration boundary).
type headlessSink struct{}

func (*headlessSink) PresentFrame(_ *[ppu.ScreenWidth * ppu.ScreenHeight]ppu.Pixel) {}
func (*headlessSink) PresentAudio(_ []int16)                                        {}
func (*headlessSink) PollInput() joypad.Button                                      { return 0 }

// pcmWriter serializes each drained buffer of samples to a raw 16-bit
// LE stereo PCM stream. It serializes into a reusable scratch buffer
// carved from a fixed arena instead of allocating a new []byte every
// call, since PresentAudio fires every time the APU's ring buffer
// fills — several times per emulated frame — for the life of the
// process (internal/allocator).
type pcmWriter struct {
	w     io.Writer
	arena *allocator.Arena
}

// maxSamplesPerBuffer bounds the scratch buffer: APU.Drain never
// returns more than one ring buffer's worth of stereo sample pairs.
const maxSamplesPerBuffer = 8192 * 2

func newPCMWriter(w io.Writer) *pcmWriter {
	return &pcmWriter{
		w:     w,
		arena: allocator.NewArena(maxSamplesPerBuffer * 2), // 2 bytes per int16 sample
	}
}

func (p *pcmWriter) PresentAudio(samples []int16) {
	p.arena.Reset()
	buf := p.arena.Alloc(allocator.WithAlign(len(samples)*2, 8))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	_, _ = p.w.Write(buf)
}
