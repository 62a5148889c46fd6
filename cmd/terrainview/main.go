package main

import (
	"flag"
	"log"
	"math"
	"os"
	"runtime"
	"strings"

	"terrainstream/internal/camera"
	"terrainstream/internal/config"
	"terrainstream/internal/game"
	"terrainstream/internal/graphics"
	"terrainstream/internal/input"
	"terrainstream/internal/meshing"
	"terrainstream/internal/terrain"
	"terrainstream/internal/world"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/xlab/closer"
)

func init() {
	// GL and glfw calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	var (
		seed        = flag.Int64("seed", config.GetSeed(), "terrain generator seed")
		viewDist    = flag.Int("view", config.GetViewDistance(), "view distance in chunks")
		workers     = flag.Int("workers", config.GetWorkers(), "tessellation workers")
		loaders     = flag.Int("loaders", 2, "chunk loading goroutines")
		chunkWidth  = flag.Int("chunk-width", terrain.DefaultOptions().ChunkWidth, "corners per chunk side")
		cacheDir    = flag.String("cache", "", "directory to persist generated chunks in")
		textureDir  = flag.String("textures", "", "directory with terrain textures")
		textures    = flag.String("terrain", "sand,grass,dirt,rock,snow", "texture name per terrain type id")
		textureSize = flag.Int("texture-size", 256, "texture edge length after scaling")
		fontPath    = flag.String("font", "", "TrueType font for the overlay, built-in when empty")
		noOverlay   = flag.Bool("no-overlay", false, "disable the stats overlay")
		prism       = flag.Bool("prism-occluders", config.GetPrismOccluders(), "use box occluders")
		logLod      = flag.Bool("log-lod", false, "logarithmic LOD falloff")
		fps         = flag.Int("fps", config.GetFPSLimit(), "frame rate limit, 0 for none")
		winW        = flag.Int("width", 1280, "window width")
		winH        = flag.Int("height", 720, "window height")
	)
	flag.Parse()

	config.SetSeed(*seed)
	config.SetViewDistance(*viewDist)
	config.SetWorkers(*workers)
	config.SetPrismOccluders(*prism)
	config.SetFPSLimit(*fps)

	opts := terrain.DefaultOptions()
	opts.ChunkWidth = *chunkWidth
	opts.TerrainTextures = strings.Split(*textures, ",")
	if err := opts.Validate(); err != nil {
		log.Fatalln(err)
	}

	gen := terrain.NewGenerator(config.GetSeed(), opts.ChunkWidth)
	gen.MinHeight = uint16(config.GetMinHeight())
	gen.Amplitude = config.GetAmplitude()
	var source world.CornerSource = gen
	if *cacheDir != "" {
		fs, err := terrain.NewFileStore(*cacheDir, opts.ChunkWidth, gen)
		if err != nil {
			log.Fatalln(err)
		}
		source = fs
	}

	if err := glfw.Init(); err != nil {
		log.Fatalln("glfw:", err)
	}
	window, err := game.SetupWindow(*winW, *winH, "terrainview")
	if err != nil {
		glfw.Terminate()
		log.Fatalln("window:", err)
	}

	scene, err := graphics.NewTerrainScene(opts)
	if err != nil {
		glfw.Terminate()
		log.Fatalln(err)
	}
	loader := graphics.NewTextureLoader(*textureDir, *textureSize)

	var font *graphics.FontRenderer
	if !*noOverlay {
		font, err = loadOverlay(*fontPath, window)
		if err != nil {
			log.Printf("overlay disabled: %v", err)
		}
	}

	pool := meshing.NewWorkerPool(config.GetWorkers())
	w, err := world.New(opts, world.NewPoolRunner(pool), scene, loader, worldOptions(opts, *logLod)...)
	if err != nil {
		glfw.Terminate()
		log.Fatalln(err)
	}
	streamer := world.NewChunkStreamer(w.Store(), source, *loaders)

	// On SIGINT/SIGTERM closer runs this off the main thread: ask the loop
	// to stop and wait for the main thread teardown.
	finished := make(chan struct{})
	closer.Bind(func() {
		select {
		case <-finished:
		default:
			window.SetShouldClose(true)
			<-finished
		}
		log.Println("terrainview: stopped")
	})

	cam := camera.New(opts, spawn(gen, opts), config.GetViewDistance())
	app := game.NewApp(game.Deps{
		Window:   window,
		Input:    input.NewInputManager(),
		Camera:   cam,
		World:    w,
		Streamer: streamer,
		Pool:     pool,
		Scene:    scene,
		Font:     font,
	})
	app.Run()

	// GL teardown must happen here, on the main thread.
	w.Close()
	pool.Shutdown()
	streamer.Close()
	scene.Delete()
	loader.Delete()
	if font != nil {
		font.Delete()
	}
	window.Destroy()
	glfw.Terminate()
	close(finished)
	closer.Close()
}

func worldOptions(opts terrain.Options, logLod bool) []world.Option {
	if !logLod {
		return nil
	}
	return []world.Option{world.WithLodPolicy(world.LogarithmicLodPolicy(2, opts.MaxLod()))}
}

func loadOverlay(path string, window *glfw.Window) (*graphics.FontRenderer, error) {
	var data []byte
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}
	atlas, err := graphics.BakeGlyphs(data, 16)
	if err != nil {
		return nil, err
	}
	ww, wh := window.GetSize()
	return graphics.NewFontRenderer(atlas, ww, wh)
}

// spawn places the camera above the centre of chunk 0,0.
func spawn(gen *terrain.Generator, opts terrain.Options) camera.Origin {
	mid := int64(opts.ChunkWidth / 2)
	ground := gen.HeightAt(mid, mid)
	lift := float32(math.Max(20, float64(opts.ChunkWorldWidth())))
	return camera.Origin{
		BaseHeight: uint32(ground),
		Offset:     mgl32.Vec3{0, lift, 0},
	}
}
