package cli

import (
	"fmt"

	"resumatch/internal/common"
	"resumatch/internal/types"
	"resumatch/internal/utils"

	"github.com/spf13/cobra"
)

func newEvaluateCommand() *cobra.Command {
	var resumeFile, jobFile string

	cmd := &cobra.Command{
		Use:   "evaluate --resume <resume-file> --job <job-description-file>",
		Short: "Evaluate a resume against a job description",
		Long: `Evaluate a resume the way an applicant tracking system would. The resume
may be a PDF, DOCX or plain text file. The result holds the match percentage,
the keywords missing from the resume and a short profile summary.`,
		Args: cobra.NoArgs,
	}
	cmdConfig := outputFlags(cmd)
	cmd.Flags().StringVarP(&resumeFile, "resume", "r", "", "Resume file (PDF, DOCX or text)")
	cmd.Flags().StringVarP(&jobFile, "job", "j", "", "Job description file")
	_ = cmd.MarkFlagRequired("resume")
	_ = cmd.MarkFlagRequired("job")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if !utils.IsResumeFile(resumeFile) {
			return fmt.Errorf("unsupported resume file %s: expected .pdf, .docx or a text file", resumeFile)
		}

		buildRequest := func(files []common.InputFile) (types.EvaluationRequest, error) {
			return types.EvaluationRequest{
				Operation: types.OperationEvaluate,
				Resume: types.ResumeSource{
					Filename: files[0].Name(),
					Data:     files[0].Data,
				},
				JobDescription: files[1].Text(),
			}, nil
		}

		return runPipelineCommand(cmd, cmdConfig, []string{resumeFile, jobFile}, buildRequest, logRequest(cmd, "Starting resume evaluation"))
	}
	return cmd
}

// logRequest logs the start of an operation with its input sizes
func logRequest(cmd *cobra.Command, message string) common.LogDetailsFunc {
	return func(req types.EvaluationRequest, cfg common.CommandConfig) {
		logger, err := getLoggerFromContext(cmd.Context())
		if err != nil {
			return
		}
		logger.Info(message,
			"operation", req.Operation,
			"resume_bytes", len(req.Resume.Data),
			"resume_url", req.Resume.URL,
			"job_description_chars", len(req.JobDescription),
			"output_format", cfg.OutputFormat)
	}
}
