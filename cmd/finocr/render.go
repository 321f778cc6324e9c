package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"finocr/internal/models"
	"finocr/internal/service"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func renderUser(w io.Writer, u *models.User) error {
	role := "user"
	if u.IsAdmin {
		role = "admin"
	}
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%s\n", u.ID)
	fmt.Fprintf(tw, "Username:\t%s\n", u.Username)
	fmt.Fprintf(tw, "Email:\t%s\n", u.Email)
	fmt.Fprintf(tw, "Role:\t%s\n", role)
	fmt.Fprintf(tw, "Registered:\t%s\n", u.RegistrationDate)
	return tw.Flush()
}

func renderPending(w io.Writer, files []service.PendingFile, total int64) error {
	if len(files) == 0 {
		return nil
	}
	tw := newTable(w)
	fmt.Fprintf(tw, "Selected Files (%d)\tTotal: %s\n", len(files), service.FormatFileSize(total))
	for _, f := range files {
		kind := "image"
		if f.IsPDF() {
			kind = "pdf"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.Name, kind, service.FormatFileSize(f.Size))
	}
	return tw.Flush()
}

func renderQueue(w io.Writer, docs []models.Document) error {
	if len(docs) == 0 {
		_, err := fmt.Fprintln(w, "No documents yet. Upload some files to get started.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tFILE\tSTATUS\tITEMS\tUPLOADED")
	for _, d := range docs {
		items := "-"
		if d.Status == models.StatusCompleted {
			items = fmt.Sprint(d.ItemCount())
		}
		status := string(d.Status)
		if d.Status == models.StatusFailed && d.ErrorMessage != nil {
			status += ": " + *d.ErrorMessage
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Filename, status, items, d.UploadTimestamp)
	}
	return tw.Flush()
}

func renderDocument(w io.Writer, doc models.Document) error {
	fmt.Fprintf(w, "%s\n", doc.Filename)

	summary, err := service.Summarize(doc)
	if errors.Is(err, service.ErrResultUnavailable) {
		fmt.Fprintf(w, "Status: %s\n", doc.Status)
		if doc.ErrorMessage != nil {
			fmt.Fprintf(w, "Error: %s\n", *doc.ErrorMessage)
		}
		return nil
	}
	if err != nil {
		return err
	}

	tw := newTable(w)
	fmt.Fprintf(tw, "Items:\t%d\n", summary.ItemCount)
	fmt.Fprintf(tw, "Total:\t$%s\n", summary.Total)
	fmt.Fprintf(tw, "Dates:\t%s\n", summary.DateRange)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "DATE\tNAME\tAMOUNT")
	for _, item := range doc.Result.ParsedDocument {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", item.Date, item.Name, item.Amount)
	}
	return tw.Flush()
}

func renderUsers(w io.Writer, users []models.User, canDeactivate func(models.User) bool) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tROLE\tSTATUS\tREGISTERED\t")
	for _, u := range users {
		role := "user"
		if u.IsAdmin {
			role = "admin"
		}
		status := "inactive"
		if u.IsActive {
			status = "active"
		}
		action := ""
		if canDeactivate(u) {
			action = "deactivatable"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, role, status, u.RegistrationDate, action)
	}
	return tw.Flush()
}
