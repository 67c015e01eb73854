package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/mateusmp/bitengine/config"
	"github.com/mateusmp/bitengine/debugui"
	debugui_ebiten "github.com/mateusmp/bitengine/debugui/ebiten"
	"github.com/mateusmp/bitengine/internal/sim"
	"github.com/rs/zerolog"
)

const (
	screenWidth  = 1280
	screenHeight = 720
)

// Game runs the stress world one frame per ebiten tick with the debug UI on top.
type Game struct {
	world    *sim.World
	backend  *debugui_ebiten.ImguiBackend
	settings *settings
	log      zerolog.Logger
}

// settings receives config reloads from the watcher goroutine.
type settings struct {
	reloads chan config.Config
	current config.Config
}

func (g *Game) Update() error {
	select {
	case cfg := <-g.settings.reloads:
		g.settings.current = cfg
		zerolog.SetGlobalLevel(cfg.Level())
		ebiten.SetTPS(cfg.TickRate)
		g.log.Info().Int("tick_rate", cfg.TickRate).Str("log_level", cfg.LogLevel).Msg("config reloaded")
	default:
	}

	g.backend.Step(g.world.Scheduler, 1.0/float64(ebiten.TPS()))
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	summary := g.world.Summary()
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("TPS %.0f  entities %d  linked %d", ebiten.ActualTPS(), summary.Live, summary.Linked), 10, screenHeight-20)
	g.backend.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.backend.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML engine config, reloaded on change.")
	entityCount := flag.Int("entities", 2000, "The number of entities kept alive.")
	churn := flag.Float64("churn", 0.005, "Fraction of the population destroyed and respawned every frame.")
	seed := flag.Uint64("seed", 1, "Seed for the population generator.")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := cfg.Logger(os.Stderr).Level(zerolog.TraceLevel)
	zerolog.SetGlobalLevel(cfg.Level())

	backend := debugui_ebiten.NewImguiBackend("Entity System Inspector", screenWidth, screenHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.TickRate)

	world, err := sim.NewWorld(cfg, log, sim.Options{Entities: *entityCount, ChurnRate: *churn, Seed: *seed}, debugui.RegisterComponents)
	if err != nil {
		log.Fatal().Err(err).Msg("build world")
	}
	defer world.Close()

	if err := world.Scheduler.Register(&debugui.ImguiProcessor{}); err != nil {
		log.Fatal().Err(err).Msg("register imgui processor")
	}
	if _, err := debugui.SpawnDebugUI(world.ES, world.Scheduler); err != nil {
		log.Fatal().Err(err).Msg("spawn debug ui")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s := &settings{reloads: make(chan config.Config, 1), current: cfg}
	if *configPath != "" {
		go func() {
			err := config.Watch(ctx, *configPath, func(next config.Config, err error) {
				if err != nil {
					log.Warn().Err(err).Msg("config reload rejected")
					return
				}
				select {
				case s.reloads <- next:
				default:
				}
			})
			if err != nil {
				log.Warn().Err(err).Msg("config watcher stopped")
			}
		}()
	}

	game := &Game{world: world, backend: backend, settings: s, log: log}
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal().Err(err).Msg("run game")
	}
}
