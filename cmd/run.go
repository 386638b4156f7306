package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spigell/career-architect/internal/ai"
	"github.com/spigell/career-architect/internal/assessment"
	"github.com/spigell/career-architect/internal/conversation"
	"github.com/spigell/career-architect/internal/headhunter"
	"github.com/spigell/career-architect/internal/intake"
	"github.com/spigell/career-architect/internal/logger"
	"github.com/spigell/career-architect/internal/progress"
	"github.com/spigell/career-architect/internal/report"
	"github.com/spigell/career-architect/internal/script"
	"github.com/spigell/career-architect/internal/session"
	"github.com/spigell/career-architect/internal/stage"
	"github.com/spigell/career-architect/internal/stagefile"
	"github.com/spigell/career-architect/internal/view"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptUpload         = "Upload my CV"
	PromptSkip           = "Skip and start from scratch"
	PromptStartInterview = "Start the technical interview"
	PromptLoadCode       = "Load my solution from a file"
	PromptSubmitCode     = "Submit solution"
	PromptReply          = "Reply in chat"
	PromptLocalFile      = "Use a local file"
	PromptQuit           = "Quit"
)

var errExit = errors.New("exit requested")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an interactive career assessment session",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("stage", "", "stage to start from: recruiter, interviewer or analyst")
	runCmd.Flags().String("stage-file", "", "file that keeps the current stage between runs")
	runCmd.Flags().String("script-file", "", "YAML script table to use instead of the built-in one")
	runCmd.Flags().String("market", "", "market data source: static or hh")
	runCmd.Flags().String("hh-resume-id", "", "analyze this hh.ru resume instead of a local file")
	runCmd.Flags().StringP("resume-file", "r", "", "CV file to upload without asking")

	viper.BindPFlag("stage", runCmd.Flags().Lookup("stage"))
	viper.BindPFlag("stage-file", runCmd.Flags().Lookup("stage-file"))
	viper.BindPFlag("script-file", runCmd.Flags().Lookup("script-file"))
	viper.BindPFlag("market.source", runCmd.Flags().Lookup("market"))
	viper.BindPFlag("market.resume-id", runCmd.Flags().Lookup("hh-resume-id"))
}

// run is the interactive session.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), viper.GetString("log-file"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the career-architect", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	table, err := loadScript(config.ScriptFile)
	if err != nil {
		logger.Fatal("loading the script table", zap.Error(err))
	}

	var store *stagefile.Store
	if config.StageFile != "" {
		store = stagefile.New(config.StageFile, logger)
	}
	initial := initialStage(config, store, logger)

	collab, err := newCollaborators(ctx, config.AI, table, logger)
	if err != nil {
		logger.Fatal("preparing ai collaborators", zap.Error(err))
	}

	hh := newHeadhunter(config.Market, logger)
	market, err := newMarket(config.Market, hh)
	if err != nil {
		logger.Fatal("preparing market data", zap.Error(err))
	}

	assembler := newAssembler(config.Report, report.Deps{
		Market:  market,
		Matcher: collab.matcher,
		Logger:  logger,
	})

	cfg := sessionConfig(config, table, collab, assembler, logger)
	cfg.OnTurn = func(s stage.Stage, turn conversation.Turn) {
		fmt.Println(view.Turn(s, turn))
		fmt.Println()
	}

	sess, err := session.New(initial, cfg)
	if err != nil {
		logger.Fatal("starting the session", zap.Error(err))
	}
	defer sess.Close()

	changes := make(chan stage.Stage, len(stage.All()))
	sess.Subscribe(func(_, to stage.Stage) {
		fmt.Println(progress.Render(to))
		fmt.Println()
		changes <- to
	})
	if store != nil {
		sess.Subscribe(store.Observer())
		if err := store.Save(sess.Stage()); err != nil {
			logger.Warn("stage not persisted", zap.Error(err))
		}
	}

	fmt.Println(progress.Render(sess.Stage()))
	fmt.Println()

	docs := &documents{
		hh:       hh,
		resumeID: config.Market.ResumeID,
		path:     cmd.Flag("resume-file").Value.String(),
	}

	for {
		if err := sess.Wait(ctx); err != nil {
			logger.Fatal("waiting for the session", zap.Error(err))
		}

		current := sess.Stage()
		switch current {
		case stage.Recruiter:
			err = recruiterTurn(ctx, sess, docs)
		case stage.Interviewer:
			err = interviewerTurn(ctx, sess, changes)
		case stage.Analyst:
			err = showReport(ctx, sess)
		}

		if err != nil {
			if errors.Is(err, errExit) {
				logger.Info("exiting", zap.String("stage", current.String()))
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func recruiterTurn(ctx context.Context, sess *session.Session, docs *documents) error {
	flow, ok := sess.Intake()
	if !ok {
		return nil
	}

	switch flow.State() {
	case intake.StateAwaitingInput:
		action := PromptUpload
		if docs.path == "" && docs.resumeID == "" {
			choice, err := selectAction("Do you have a CV to upload?", PromptUpload, PromptSkip, PromptQuit)
			if err != nil {
				return err
			}
			action = choice
		}

		switch action {
		case PromptUpload:
			doc, err := docs.load(ctx)
			if err != nil {
				fmt.Printf("Could not read the CV: %v\n\n", err)
				return nil
			}
			fmt.Printf("Analyzing %s...\n\n", doc.Name)
			flow.SubmitDocument(doc)
		case PromptSkip:
			flow.Skip()
		default:
			return errExit
		}
	case intake.StateConversing:
		if flow.AffordanceAvailable() {
			action, err := selectAction("Ready?", PromptStartInterview, PromptQuit)
			if err != nil {
				return err
			}
			if action != PromptStartInterview {
				return errExit
			}
			flow.AcceptAffordance()
			return nil
		}

		text, err := readMessage()
		if err != nil {
			return err
		}
		explain(flow.Submit(text))
	}

	return nil
}

func interviewerTurn(ctx context.Context, sess *session.Session, changes <-chan stage.Stage) error {
	flow, ok := sess.Assessment()
	if !ok {
		return nil
	}

	// The closing reply hands over to the analyst on its own.
	if flow.Finished() {
		return awaitStageChange(ctx, sess, stage.Interviewer, changes)
	}

	if flow.Mode() == script.ModeCoding {
		return codingTurn(flow)
	}

	text, err := readMessage()
	if err != nil {
		return err
	}
	explain(flow.Submit(text))
	return nil
}

func codingTurn(flow *assessment.Flow) error {
	workspace, ok := flow.Workspace()
	if !ok {
		return nil
	}

	action, err := selectAction("Coding task", PromptLoadCode, PromptSubmitCode, PromptReply, PromptQuit)
	if err != nil {
		return err
	}

	switch action {
	case PromptLoadCode:
		path, err := (&promptui.Prompt{Label: "Solution file"}).Run()
		if err != nil {
			return err
		}
		code, err := os.ReadFile(strings.TrimSpace(path))
		if err != nil {
			fmt.Printf("Could not read the solution: %v\n\n", err)
			return nil
		}
		workspace.SetCode(string(code))
		fmt.Printf("%s\n\n", strings.TrimSpace(workspace.Code()))
	case PromptSubmitCode:
		explain(flow.SubmitCode())
	case PromptReply:
		text, err := readMessage()
		if err != nil {
			return err
		}
		explain(flow.Submit(text))
	default:
		return errExit
	}
	return nil
}

func showReport(ctx context.Context, sess *session.Session) error {
	flow, ok := sess.Analyst()
	if !ok {
		return errExit
	}

	fmt.Println("Preparing your report...")
	fmt.Println()
	if err := flow.Wait(ctx); err != nil {
		return err
	}

	r, err := flow.Report()
	if err != nil {
		return fmt.Errorf("building the report: %w", err)
	}
	fmt.Println(view.Report(r))
	return errExit
}

func awaitStageChange(ctx context.Context, sess *session.Session, from stage.Stage, changes <-chan stage.Stage) error {
	for sess.Stage() == from {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changes:
		}
	}
	return nil
}

func selectAction(label string, items ...string) (string, error) {
	prompt := promptui.Select{Label: label, Items: items}
	_, action, err := prompt.Run()
	return action, err
}

func readMessage() (string, error) {
	prompt := promptui.Prompt{
		Label: "You",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("message is empty")
			}
			return nil
		},
	}
	text, err := prompt.Run()
	if err != nil {
		return "", err
	}
	fmt.Println()
	return text, nil
}

func explain(outcome conversation.Outcome) {
	switch outcome {
	case conversation.OutcomePending:
		fmt.Println("Please wait for the reply.")
	case conversation.OutcomeRejected:
		fmt.Println("Please type a message.")
	case conversation.OutcomeUnavailable:
		fmt.Println("That is not available right now.")
	}
}

// documents resolves the CV for the intake stage.
type documents struct {
	hh       *headhunter.Client
	resumeID string
	path     string
}

// load resolves the CV. A preset file or resume id is tried once; after a
// failure the candidate is asked again.
func (d *documents) load(ctx context.Context) (ai.Document, error) {
	doc, err := d.resolve(ctx)
	if err != nil {
		d.resumeID, d.path = "", ""
	}
	return doc, err
}

func (d *documents) resolve(ctx context.Context) (ai.Document, error) {
	id := d.resumeID
	if id == "" && d.path == "" && d.hh.HasToken() {
		chosen, err := d.chooseResume(ctx)
		if err != nil {
			return ai.Document{}, err
		}
		id = chosen
	}

	if id != "" {
		return d.download(ctx, id)
	}

	path := d.path
	if path == "" {
		entered, err := (&promptui.Prompt{Label: "Path to your CV"}).Run()
		if err != nil {
			return ai.Document{}, err
		}
		path = strings.TrimSpace(entered)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return ai.Document{}, err
	}
	return ai.Document{Name: filepath.Base(path), Content: content}, nil
}

// chooseResume lets the candidate pick one of their hh.ru resumes. An empty id
// means a local file.
func (d *documents) chooseResume(ctx context.Context) (string, error) {
	resumes, err := d.hh.GetMineResumes(ctx)
	if err != nil {
		return "", fmt.Errorf("listing hh.ru resumes: %w", err)
	}
	if resumes.Len() == 0 {
		return "", nil
	}

	title, err := selectAction("Which resume should I analyze?", append(resumes.Titles(), PromptLocalFile)...)
	if err != nil {
		return "", err
	}
	if resume := resumes.FindByTitle(title); resume != nil {
		return resume.ID, nil
	}
	return "", nil
}

func (d *documents) download(ctx context.Context, id string) (ai.Document, error) {
	details, err := d.hh.GetResumeDetails(ctx, id)
	if err != nil {
		return ai.Document{}, fmt.Errorf("downloading resume %s: %w", id, err)
	}
	content, err := details.Document()
	if err != nil {
		return ai.Document{}, err
	}
	name := details.Title
	if name == "" {
		name = "hh.ru resume " + id
	}
	return ai.Document{Name: name, Content: content}, nil
}
