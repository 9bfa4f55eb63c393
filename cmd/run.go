package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hnakai/screenflow/internal/action"
	"github.com/hnakai/screenflow/internal/engine"
	"github.com/hnakai/screenflow/internal/output"
	"github.com/hnakai/screenflow/internal/screen"
	"github.com/hnakai/screenflow/internal/store"
	"github.com/hnakai/screenflow/internal/transcript"
)

// runFile is the YAML document the run command consumes.
type runFile struct {
	Actions []action.Action  `yaml:"actions"`
	Config  action.RunConfig `yaml:"config"`
}

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Execute an action sequence from a YAML file",
	Long: `Execute a YAML action sequence against the desktop and poll it to
completion. Reads from the given file, or stdin when the argument is "-"
or omitted.

Example:
  screenflow run <<'EOF'
  actions:
    - { type: click, image: send-button.png }
    - { type: paste, text_id: 4f7c... }
    - { type: wait, image: done-marker.png }
  config:
    confidence: 0.9
    min_confidence: 0.7
  EOF`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("images", "images", "Template image directory")
	runCmd.Flags().String("texts", "texts.json", "Snippet store file")
	runCmd.Flags().String("outputs", "outputs", "Transcript output directory")
}

func runRun(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("read actions: %w", err)
	}

	var rf runFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return fmt.Errorf("parse actions: %w", err)
	}
	if err := action.ValidateAll(rf.Actions); err != nil {
		return err
	}
	rf.Config.ApplyDefaults()

	imagesDir, _ := cmd.Flags().GetString("images")
	textsFile, _ := cmd.Flags().GetString("texts")
	outputsDir, _ := cmd.Flags().GetString("outputs")

	snippets, err := store.NewSnippetStore(textsFile)
	if err != nil {
		return err
	}
	templates, err := store.NewTemplateStore(imagesDir)
	if err != nil {
		return err
	}

	executor := engine.New(
		screen.NewRobotProbe(),
		snippets,
		templates,
		transcript.NewWriter(outputsDir),
		nil,
	)

	runID, err := executor.Start(rf.Actions, rf.Config)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "run %s started (%d actions)\n", runID, len(rf.Actions))

	for {
		snap := executor.State().Snapshot()
		if !snap.Running {
			return output.Print(snap)
		}
		fmt.Fprintf(os.Stderr, "progress: %d/%d\n", snap.StepIndex, snap.TotalSteps)
		time.Sleep(time.Second)
	}
}
