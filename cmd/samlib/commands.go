package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"samlib/internal/bookfs"
	"samlib/internal/storage"
)

func parseID(arg string) (int64, error) {
	return strconv.ParseInt(arg, 10, 64)
}

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <url>",
		Short: "Start tracking an author by URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openAgent()
			if err != nil {
				return err
			}
			defer a.Close()

			author, err := a.AddAuthor(args[0])
			if err != nil {
				return err
			}

			works, err := a.CountAuthorWorks(author.ID, false)
			if err != nil {
				return err
			}
			cmd.Printf("Tracking %s (%d work(s))\n", renderAuthor(author, works), works)
			return nil
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <author-id>",
		Short: "Stop tracking an author and drop their data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := openAgent()
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.GetAuthor(id); err != nil {
				return err
			}
			if err := a.RemoveAuthor(id); err != nil {
				return err
			}
			cmd.Printf("Author #%d removed\n", id)
			return nil
		},
	}
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "sync",
		Aliases: []string{"check"},
		Short:   "Check every tracked author for updates",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openAgent()
			if err != nil {
				return err
			}
			defer a.Close()

			return a.CheckUpdates(func(author storage.Author, current, total int) {
				cmd.Printf("[%d/%d] %s\n", current, total, author.Name)
			})
		},
	}
}

func newAuthorsCmd() *cobra.Command {
	var updatesOnly bool

	cmd := &cobra.Command{
		Use:   "authors",
		Short: "List tracked authors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openAgent()
			if err != nil {
				return err
			}
			defer a.Close()

			authors, err := a.GetAuthors(updatesOnly)
			if err != nil {
				return err
			}
			for _, author := range authors {
				unread, err := a.CountAuthorWorks(author.ID, true)
				if err != nil {
					return err
				}
				cmd.Println(renderAuthor(author, unread))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&updatesOnly, "updates", "u", false, "only authors with unread works")
	return cmd
}

func newGroupsCmd() *cobra.Command {
	var (
		authorID    int64
		updatesOnly bool
	)

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List the groups of an author",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openAgent()
			if err != nil {
				return err
			}
			defer a.Close()

			groups, err := a.GetGroups(authorID, updatesOnly)
			if err != nil {
				return err
			}
			for _, group := range groups {
				cmd.Println(renderGroup(group))
			}
			return nil
		},
	}

	cmd.Flags().Int64VarP(&authorID, "author", "a", 0, "author id")
	cmd.Flags().BoolVarP(&updatesOnly, "updates", "u", false, "only groups with unread works")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

func newWorksCmd() *cobra.Command {
	var (
		authorID    int64
		groupID     int64
		updatesOnly bool
	)

	cmd := &cobra.Command{
		Use:   "works",
		Short: "List the works of an author or group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if authorID == 0 && groupID == 0 {
				return cmd.Help()
			}

			a, err := openAgent()
			if err != nil {
				return err
			}
			defer a.Close()

			var works []storage.Work
			if groupID != 0 {
				works, err = a.GetGroupWorks(groupID, updatesOnly)
			} else {
				works, err = a.GetAuthorWorks(authorID, updatesOnly)
			}
			if err != nil {
				return err
			}
			for _, work := range works {
				cmd.Println(renderWork(work))
			}
			return nil
		},
	}

	cmd.Flags().Int64VarP(&authorID, "author", "a", 0, "author id")
	cmd.Flags().Int64VarP(&groupID, "group", "g", 0, "group id")
	cmd.Flags().BoolVarP(&updatesOnly, "updates", "u", false, "only unread works")
	return cmd
}

func newReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "read <author|group|work> <id>",
		Short:     "Mark an author, group or work as read",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"author", "group", "work"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}

			a, err := openAgent()
			if err != nil {
				return err
			}
			defer a.Close()

			switch args[0] {
			case "author":
				err = a.MarkAuthorRead(id)
			case "group":
				err = a.MarkGroupRead(id)
			case "work":
				err = a.MarkWorkRead(id)
			default:
				return cmd.Help()
			}
			if err != nil {
				return err
			}
			cmd.Printf("Marked %s #%d as read\n", args[0], id)
			return nil
		},
	}
}

func newUnreadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unread <work-id>",
		Short: "Mark a work as unread again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := openAgent()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.MarkWorkUnread(id); err != nil {
				return err
			}
			cmd.Printf("Marked work #%d as unread\n", id)
			return nil
		},
	}
}

func newFetchCmd() *cobra.Command {
	var formatName string

	cmd := &cobra.Command{
		Use:   "fetch <work-id>",
		Short: "Download the body of a work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			format, err := bookfs.ParseFormat(formatName)
			if err != nil {
				return err
			}

			a, err := openAgent()
			if err != nil {
				return err
			}
			defer a.Close()

			path, err := a.FetchWork(id, format)
			if err != nil {
				return err
			}
			cmd.Printf("Stored at %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", "fb2", "download format: fb2 or html")
	return cmd
}
