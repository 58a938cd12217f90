package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/cli/config"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"github.com/secmon-lab/oprisk/pkg/domain/types"
	"github.com/secmon-lab/oprisk/pkg/usecase"
	"github.com/secmon-lab/oprisk/pkg/utils/logging"
	"github.com/secmon-lab/oprisk/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdExtract() *cli.Command {
	var input string
	var save string
	var actorID string
	var appCfg config.App
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "KRI report file (\"-\" reads from stdin)",
			Value:       "-",
			Destination: &input,
		},
		&cli.StringFlag{
			Name:        "save",
			Usage:       "Persist candidates as drafts or approved risks (draft, approve). Preview only when empty",
			Sources:     cli.EnvVars("OPRISK_EXTRACT_SAVE"),
			Destination: &save,
		},
		&cli.StringFlag{
			Name:        "actor",
			Usage:       "Actor ID recorded as the last updater of saved risks",
			Sources:     cli.EnvVars("OPRISK_ACTOR"),
			Destination: &actorID,
		},
	}
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "extract",
		Aliases: []string{"x"},
		Usage:   "Extract risk candidates from a KRI report",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			mode, err := parseSaveMode(save)
			if err != nil {
				return err
			}

			raw, err := readInput(input)
			if err != nil {
				return err
			}

			cfg, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load configuration")
			}
			draftPolicy, approvePolicy, err := cfg.ScoringPolicies()
			if err != nil {
				return goerr.Wrap(err, "failed to build scoring policies")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			uc := usecase.New(repo, usecase.WithScoringPolicies(draftPolicy, approvePolicy))

			var actor *model.Actor
			if actorID != "" {
				actor = &model.Actor{ID: actorID}
			}

			result, err := uc.Extraction.Extract(ctx, actor, raw, mode)
			if err != nil {
				return goerr.Wrap(err, "failed to extract risks", goerr.V("mode", mode))
			}

			printExtraction(c.Root().Writer, result)
			return nil
		},
	}
}

func parseSaveMode(save string) (model.ExtractionMode, error) {
	switch save {
	case "":
		return model.ExtractionModePreview, nil
	case string(model.ExtractionModeDraft):
		return model.ExtractionModeDraft, nil
	case string(model.ExtractionModeApprove):
		return model.ExtractionModeApprove, nil
	default:
		return "", goerr.New("invalid save mode, expected draft or approve", goerr.V("save", save))
	}
}

func readInput(input string) (string, error) {
	if input == "" || input == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", goerr.Wrap(err, "failed to read stdin")
		}
		return string(data), nil
	}

	f, err := os.Open(input) // #nosec G304 -- path is supplied by the operator
	if err != nil {
		return "", goerr.Wrap(err, "failed to open input", goerr.V("input", input))
	}
	defer safe.Close(context.Background(), f)

	data, err := io.ReadAll(f)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read input", goerr.V("input", input))
	}
	return string(data), nil
}

func printExtraction(w io.Writer, result *model.ExtractionResult) {
	if w == nil {
		w = os.Stdout
	}
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(w, "%s %s (%s)\n", bold("Area:"), result.AreaName, result.ReportingPeriod)
	fmt.Fprintf(w, "%s %s  %s %s\n\n", bold("Batch:"), result.BatchID, bold("Mode:"), result.Mode)

	for _, cand := range result.Candidates {
		r := cand.Risk
		fmt.Fprintf(w, "%3d. %-22s %s\n", cand.Number, r.ReferenceID, r.ShortDescription())
		fmt.Fprintf(w, "     inherent %s/%s %s  residual %s/%s %s  [%s]\n",
			r.InherentProbability, r.InherentImpact, ratingLabel(r.InherentRating),
			r.ResidualProbability, r.ResidualImpact, ratingLabel(r.ResidualRating),
			cand.Status,
		)
	}

	fmt.Fprintf(w, "\n%d candidates, %d saved, %d zero occurrence, %d duplicate, %d failed\n",
		len(result.Candidates),
		result.Count(model.CandidateStatusSaved),
		result.Count(model.CandidateStatusZeroOccurrence),
		result.Count(model.CandidateStatusDuplicate),
		result.Count(model.CandidateStatusFailed),
	)
}

func ratingLabel(r types.Rating) string {
	var c *color.Color
	switch r {
	case types.RatingCritical:
		c = color.New(color.FgRed, color.Bold)
	case types.RatingSevere:
		c = color.New(color.FgRed)
	case types.RatingModerate:
		c = color.New(color.FgYellow)
	case types.RatingSustainable:
		c = color.New(color.FgGreen)
	default:
		return r.String()
	}
	return c.Sprint(r.String())
}
