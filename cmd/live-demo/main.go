// live-demo drives a live session from the terminal: microphone in, speaker
// out, transcripts in a scrolling pane. It exists to exercise the engine
// against real endpoints, not to be a product.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	livesession "github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core"
	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/audio/miniaudio"
	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/config"
	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/vision"
)

const (
	geminiBaseURL   = "wss://generativelanguage.googleapis.com"
	realtimeBaseURL = "wss://dashscope-intl.aliyuncs.com"
)

func main() {
	backendFlag := flag.String("backend", "gemini", "backend to use: gemini, omni, or translate")
	modelFlag := flag.String("model", "", "override the backend's default model")
	voiceFlag := flag.String("voice", "", "override the backend's default voice")
	sourceFlag := flag.String("source", "en", "source language for the translate backend")
	targetFlag := flag.String("target", "zh", "target language for the translate backend")
	configURLFlag := flag.String("config-url", "", "fetch credentials from this URL instead of the environment")
	flag.Parse()

	if err := run(*backendFlag, *modelFlag, *voiceFlag, *sourceFlag, *targetFlag, *configURLFlag); err != nil {
		fmt.Fprintln(os.Stderr, "live-demo:", err)
		os.Exit(1)
	}
}

func run(backendName, model, voice, source, target, configURL string) error {
	var backend livesession.Backend
	var envKey string
	var baseURL string
	switch backendName {
	case "gemini":
		backend = livesession.GeminiLive()
		envKey = "GEMINI_API_KEY"
		baseURL = geminiBaseURL
	case "omni":
		backend = livesession.OmniRealtime()
		envKey = "DASHSCOPE_API_KEY"
		baseURL = realtimeBaseURL
	case "translate":
		backend = livesession.SpeechTranslation(source, target)
		envKey = "DASHSCOPE_API_KEY"
		baseURL = realtimeBaseURL
	default:
		return fmt.Errorf("unknown backend %q", backendName)
	}

	var provider config.Provider
	if configURL != "" {
		provider = config.NewRemote(configURL)
	} else {
		provider = &config.Static{APIKey: os.Getenv(envKey), BaseURL: baseURL}
	}

	audioClient, err := miniaudio.NewClient()
	if err != nil {
		return fmt.Errorf("failed to open audio devices: %w", err)
	}
	defer audioClient.Close()

	session := livesession.NewSession(
		livesession.WithBackend(backend),
		livesession.WithConfigProvider(provider),
		livesession.WithModel(model),
		livesession.WithVoice(voice),
		livesession.WithAudioInput(audioClient.Input()),
		livesession.WithAudioOutput(audioClient.Output()),
		livesession.WithSystemInstructions("You are a concise voice assistant."),
		livesession.WithTools(demoTools()...),
	)

	program := tea.NewProgram(newDemoModel(session, backend.Name), tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		err := session.Connect(ctx,
			livesession.WithConnectedCallback(func() {
				program.Send(connectedMsg{})
			}),
			livesession.WithTranscriptCallback(func(text string) {
				program.Send(transcriptDeltaMsg(text))
			}),
			livesession.WithTranscriptDoneCallback(func(text string) {
				program.Send(transcriptDoneMsg(text))
			}),
			livesession.WithUserTranscriptCallback(func(text string) {
				program.Send(userTranscriptMsg(text))
			}),
			livesession.WithSpeechActivityCallback(func(speaking bool) {
				program.Send(speechActivityMsg(speaking))
			}),
			livesession.WithToolResultCallback(func(name string, _ any) {
				program.Send(toolResultMsg(name))
			}),
			livesession.WithErrorCallback(func(err error) {
				program.Send(sessionErrMsg{err: err})
			}),
		)
		if err != nil {
			program.Send(sessionErrMsg{err: err})
		}
	}()

	if _, err := program.Run(); err != nil {
		session.Disconnect()
		return fmt.Errorf("failed to run UI: %w", err)
	}

	session.Disconnect()
	return nil
}

type timeParameters struct{}

type describePhotoParameters struct {
	Path string `json:"path" jsonschema_description:"Filesystem path of the photo to describe"`
}

func demoTools() []livesession.Tool {
	tools := []livesession.Tool{
		livesession.NewTool("get_current_time", "Returns the current local time.",
			func(_ context.Context, _ timeParameters) (livesession.ToolResult, error) {
				return livesession.ToolResult{
					Payload: map[string]string{"time": time.Now().Format(time.RFC1123)},
				}, nil
			},
		),
	}

	visionKey := os.Getenv("OPENAI_API_KEY")
	if visionKey == "" {
		return tools
	}

	visionClient := vision.NewClient(visionKey, "gpt-4o-mini")
	tools = append(tools, livesession.NewTool("describe_photo",
		"Describes a photo stored on disk.",
		func(ctx context.Context, parameters describePhotoParameters) (livesession.ToolResult, error) {
			image, err := os.ReadFile(parameters.Path)
			if err != nil {
				return livesession.ToolResult{}, fmt.Errorf("failed to read photo: %w", err)
			}

			description, err := visionClient.Analyze(ctx, image, "Describe this photo in one paragraph.")
			if err != nil {
				return livesession.ToolResult{}, err
			}
			return livesession.ToolResult{
				Payload: map[string]string{"description": description},
			}, nil
		},
	))

	return tools
}
