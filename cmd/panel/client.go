package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/user/crawler-panel/internal/catalog"
	"github.com/user/crawler-panel/internal/entity"
	"github.com/user/crawler-panel/internal/usecase"
	"github.com/user/crawler-panel/pkg/jsonutil"
)

type jobKind struct {
	op    entity.Operation
	use   string
	short string
}

var (
	jobSearch  = jobKind{op: entity.OperationSearch, use: "search <platform> <keywords>", short: "Search a platform by keywords"}
	jobDetail  = jobKind{op: entity.OperationDetail, use: "detail <platform> <note_ids>", short: "Fetch posts or videos by ID"}
	jobCreator = jobKind{op: entity.OperationCreator, use: "creator <platform> <creator_ids>", short: "Fetch creators' content by ID"}
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the crawler API and list its platforms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			api, err := newAPIClient(cfg)
			if err != nil {
				return err
			}
			report := usecase.NewStatusMonitor(api).Refresh(cmd.Context())
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if report.State != entity.APIStateOnline {
				return fmt.Errorf("crawler API at %s is offline", api.BaseURL())
			}
			return nil
		},
	}
}

func newPlatformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List the platforms the crawler API supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			api, err := newAPIClient(cfg)
			if err != nil {
				return err
			}
			list, err := api.GetPlatforms(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), list)
		},
	}
}

func newJobCmd(kind jobKind) *cobra.Command {
	var (
		loginType     string
		saveOption    string
		cookies       string
		startPage     int
		getComment    bool
		getSubComment bool
		async         bool
	)

	cmd := &cobra.Command{
		Use:   kind.use,
		Short: kind.short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := entity.FormState{
				Platform:       args[0],
				Target:         args[1],
				StartPage:      startPage,
				LoginType:      entity.LoginType(loginType),
				SaveDataOption: entity.SaveDataOption(saveOption),
				GetComment:     getComment,
				GetSubComment:  getSubComment,
				Cookies:        cookies,
			}
			if err := checkChoices(form); err != nil {
				return err
			}

			cat, err := catalog.Load()
			if err != nil {
				return err
			}
			form = usecase.PrepareForm(kind.op, form)
			if err := usecase.Validate(cat, kind.op, form); err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			api, err := newAPIClient(cfg)
			if err != nil {
				return err
			}

			resp, err := usecase.Dispatch(cmd.Context(), api, kind.op, form, async)
			if err != nil {
				resp = entity.NewErrorResponse(err.Error())
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}

	addLoginFlags(cmd, &loginType, &cookies)
	cmd.Flags().StringVar(&saveOption, "save", string(entity.SaveDataJSON), "Save data option (json, csv, sqlite, db)")
	cmd.Flags().BoolVar(&getComment, "comments", true, "Crawl first-level comments")
	cmd.Flags().BoolVar(&getSubComment, "sub-comments", false, "Crawl second-level comments")
	cmd.Flags().BoolVar(&async, "async", false, "Start the job in the background and return its PID")
	if kind.op == entity.OperationSearch {
		cmd.Flags().IntVar(&startPage, "start-page", 1, "First result page")
	}
	return cmd
}

func newQuickSearchCmd() *cobra.Command {
	var (
		loginType  string
		startPage  int
		getComment bool
	)

	cmd := &cobra.Command{
		Use:   "quick-search <platform> <keywords>",
		Short: "Search through the URL-parameter endpoint of the API",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := entity.FormState{
				Platform:       args[0],
				Target:         args[1],
				LoginType:      entity.LoginType(loginType),
				SaveDataOption: entity.SaveDataJSON,
			}
			if err := checkChoices(form); err != nil {
				return err
			}
			cat, err := catalog.Load()
			if err != nil {
				return err
			}
			if err := usecase.Validate(cat, entity.OperationSearch, form); err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			api, err := newAPIClient(cfg)
			if err != nil {
				return err
			}

			resp, err := api.QuickSearch(cmd.Context(), form.Platform, form.Target, entity.QuickSearchOptions{
				LoginType:  form.LoginType,
				StartPage:  startPage,
				GetComment: &getComment,
			})
			if err != nil {
				resp = entity.NewErrorResponse(err.Error())
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&loginType, "login", string(entity.LoginTypeQRCode), "Login type (qrcode, phone, cookie)")
	cmd.Flags().IntVar(&startPage, "start-page", 1, "First result page")
	cmd.Flags().BoolVar(&getComment, "comments", true, "Crawl first-level comments")
	return cmd
}

func addLoginFlags(cmd *cobra.Command, loginType, cookies *string) {
	cmd.Flags().StringVar(loginType, "login", string(entity.LoginTypeQRCode), "Login type (qrcode, phone, cookie)")
	cmd.Flags().StringVar(cookies, "cookies", "", "Cookie string, only sent with --login cookie")
}

func checkChoices(form entity.FormState) error {
	if !form.LoginType.Valid() {
		return fmt.Errorf("invalid login type %q", form.LoginType)
	}
	if !form.SaveDataOption.Valid() {
		return fmt.Errorf("invalid save data option %q", form.SaveDataOption)
	}
	return nil
}

// printResponse prints resp and turns an error status into a non-zero exit.
func printResponse(w io.Writer, resp *entity.APIResponse) error {
	if err := printJSON(w, resp); err != nil {
		return err
	}
	if resp.Status == entity.StatusError {
		return fmt.Errorf("job failed: %s", resp.Message)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	out, err := jsonutil.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
