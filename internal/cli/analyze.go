package cli

import (
	"resumatch/internal/common"
	"resumatch/internal/types"

	"github.com/spf13/cobra"
)

func newAnalyzeCommand() *cobra.Command {
	var resumeURL, jobFile, coverFile string

	cmd := &cobra.Command{
		Use:   "analyze --url <resume-url> --job <job-description-file>",
		Short: "Score a remote resume against a job description",
		Long: `Download a resume from an http(s) or s3 URL and score it against a job
description, optionally with a cover letter. The result holds a 0-100 score,
the match percentage, missing keywords and a summary.`,
		Args: cobra.NoArgs,
	}
	cmdConfig := outputFlags(cmd)
	cmd.Flags().StringVarP(&resumeURL, "url", "u", "", "Resume URL (http, https or s3)")
	cmd.Flags().StringVarP(&jobFile, "job", "j", "", "Job description file")
	cmd.Flags().StringVarP(&coverFile, "cover", "c", "", "Cover letter file (optional)")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("job")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		buildRequest := func(files []common.InputFile) (types.EvaluationRequest, error) {
			return types.EvaluationRequest{
				Operation:      types.OperationAnalyzeResume,
				Resume:         types.ResumeSource{URL: resumeURL},
				JobDescription: files[0].Text(),
				CoverLetter:    files[1].Text(),
			}, nil
		}

		return runPipelineCommand(cmd, cmdConfig, []string{jobFile, coverFile}, buildRequest, logRequest(cmd, "Starting resume analysis"))
	}
	return cmd
}
