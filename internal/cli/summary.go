package cli

import (
	"resumatch/internal/common"
	"resumatch/internal/types"

	"github.com/spf13/cobra"
)

func newSummaryCommand() *cobra.Command {
	var (
		title   string
		jobFile string
		years   int
		tags    []string
	)

	cmd := &cobra.Command{
		Use:   "summary --title <job-title> --job <job-description-file>",
		Short: "Summarize a job posting",
		Args:  cobra.NoArgs,
	}
	cmdConfig := outputFlags(cmd)
	cmd.Flags().StringVarP(&title, "title", "t", "", "Job title")
	cmd.Flags().StringVarP(&jobFile, "job", "j", "", "Job description file")
	cmd.Flags().IntVar(&years, "years", 0, "Required years of experience")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Comma-separated job tags")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("job")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		buildRequest := func(files []common.InputFile) (types.EvaluationRequest, error) {
			return types.EvaluationRequest{
				Operation:      types.OperationJobSummary,
				JobDescription: files[0].Text(),
				Job: types.JobMetadata{
					Title:                   title,
					RequiredExperienceYears: years,
					Tags:                    tags,
				},
			}, nil
		}

		return runPipelineCommand(cmd, cmdConfig, []string{jobFile}, buildRequest, logRequest(cmd, "Starting job summary"))
	}
	return cmd
}
