package predictcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/clusterlens/clusterlens/api"
	"github.com/clusterlens/clusterlens/pkg/cliui"
	"github.com/clusterlens/clusterlens/pkg/feedback"
)

// session runs the interactive predict loop: read text, classify it, collect
// a rating and offer to edit, start again or quit.
type session struct {
	predictor predictor
	minWords  int

	in  *bufio.Reader
	out io.Writer
}

func newSession(p predictor, minWords int, in io.Reader, out io.Writer) *session {
	return &session{
		predictor: p,
		minWords:  minWords,
		in:        bufio.NewReader(in),
		out:       out,
	}
}

// Run loops until the user quits or input ends. End of input is a clean exit.
func (s *session) Run(ctx context.Context) error {
	var previous string

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		text, err := s.readText(previous)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if words := len(strings.Fields(text)); words < s.minWords {
			fmt.Fprintf(s.out, "%s Please write at least %d words (you wrote %d).\n", cliui.WarnMark, s.minWords, words)
			continue
		}

		res, err := s.predictor.Classify(ctx, text)
		if err != nil {
			fmt.Fprintf(s.out, "%s %v\n", cliui.FailMark, err)
			previous = text
			continue
		}
		s.printResult(res)

		if err := s.collectFeedback(ctx, text, res); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		action, err := s.readAction()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch action {
		case "e":
			previous = text
		case "s":
			previous = ""
		case "q":
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		}
	}
}

// readText prompts for a submission. When previous is set, an empty line
// keeps it.
func (s *session) readText(previous string) (string, error) {
	if previous != "" {
		fmt.Fprintf(s.out, "\n%s\n%s\n", cliui.DimStyle.Render("Your previous text:"), previous)
		fmt.Fprintf(s.out, "%s\n", cliui.PromptStyle.Render("Type a replacement, or press enter to keep it:"))
	} else {
		fmt.Fprintf(s.out, "\n%s\n", cliui.PromptStyle.Render(fmt.Sprintf("Write about your difficulties (min %d words):", s.minWords)))
	}

	line, err := s.readLine()
	if err != nil {
		return "", err
	}
	if line == "" && previous != "" {
		return previous, nil
	}
	return line, nil
}

func (s *session) printResult(r *result) {
	fmt.Fprintf(s.out, "\nYour post was classified as %s %s\n",
		cliui.ClusterStyle.Render("Cluster "+r.Cluster),
		cliui.DimStyle.Render(fmt.Sprintf("(Certainty: %s)", cliui.Percent(r.Certainty))),
	)

	response, err := cliui.RenderMarkdown(r.Response)
	if err != nil {
		response = r.Response
	}
	fmt.Fprintf(s.out, "\n%s\n%s\n", cliui.HeaderStyle.Render("Suggested response:"), response)
}

// collectFeedback asks for a rating until one in range is given. An empty
// rating skips feedback for this prediction.
func (s *session) collectFeedback(ctx context.Context, text string, r *result) error {
	var rating int
	for {
		fmt.Fprintf(s.out, "\n%s ", cliui.PromptStyle.Render(
			fmt.Sprintf("How accurate was the response? (%d to %d, enter to skip):", feedback.MinRating, feedback.MaxRating)))

		line, err := s.readLine()
		if err != nil {
			return err
		}
		if line == "" {
			return nil
		}

		n, err := strconv.Atoi(line)
		if err == nil && n >= feedback.MinRating && n <= feedback.MaxRating {
			rating = n
			break
		}
		fmt.Fprintf(s.out, "%s Please enter a number from %d to %d.\n", cliui.WarnMark, feedback.MinRating, feedback.MaxRating)
	}

	fmt.Fprintf(s.out, "%s ", cliui.PromptStyle.Render("Optional feedback:"))
	comment, err := s.readLine()
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	resp, ferr := s.predictor.Feedback(ctx, api.FeedbackRequest{
		Text:      text,
		Cluster:   r.Cluster,
		Certainty: r.Certainty,
		Rating:    rating,
		Comment:   comment,
	})
	switch {
	case ferr != nil:
		fmt.Fprintf(s.out, "%s Feedback not saved: %v\n", cliui.FailMark, ferr)
	case !resp.Acknowledged:
		fmt.Fprintf(s.out, "%s Feedback not saved: %s\n", cliui.WarnMark, resp.Warning)
	default:
		fmt.Fprintf(s.out, "%s Thanks, feedback saved.\n", cliui.SuccessMark)
	}

	// Input ended after the comment; the record is saved, now stop.
	return err
}

// readAction returns "e", "s" or "q", re-prompting on anything else.
func (s *session) readAction() (string, error) {
	for {
		fmt.Fprintf(s.out, "\n%s ", cliui.PromptStyle.Render("Would you like to (e)dit what you wrote, (s)tart again, or (q)uit?"))

		line, err := s.readLine()
		if err != nil {
			return "", err
		}

		switch a := strings.ToLower(line); a {
		case "e", "edit":
			return "e", nil
		case "s", "start":
			return "s", nil
		case "q", "quit":
			return "q", nil
		}
	}
}

// readLine returns the next trimmed line. A final line without a newline is
// returned before io.EOF.
func (s *session) readLine() (string, error) {
	line, err := s.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
