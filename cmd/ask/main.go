package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
)

type askResponse struct {
	Ok     bool   `json:"ok"`
	Answer string `json:"answer"`
}

// Asks a running assistant a question, optionally with an image. Without -q
// it reads questions from stdin, one per line, in a single session.
func main() {
	server := flag.String("server", "http://localhost:8000", "assistant base URL")
	imagePath := flag.String("image", "", "image to upload with the first question")
	question := flag.String("q", "", "question to ask")
	flag.Parse()

	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar, Timeout: 5 * time.Minute}

	if *question != "" {
		if err := ask(client, *server, *question, *imagePath); err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		return
	}

	color.Cyan("🛒 Shopping assistant at %s. Type a question, empty line to quit.", *server)
	upload := *imagePath
	scanner := bufio.NewScanner(os.Stdin)
	for {
		color.Yellow("\n> ")
		if !scanner.Scan() {
			return
		}
		q := strings.TrimSpace(scanner.Text())
		if q == "" {
			return
		}
		if err := ask(client, *server, q, upload); err != nil {
			color.Red("Failed: %v", err)
			continue
		}
		upload = ""
	}
}

func ask(client *http.Client, server, question, imagePath string) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("query", question); err != nil {
		return err
	}
	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return err
		}
		part, err := w.CreateFormFile("image", filepath.Base(imagePath))
		if err != nil {
			return err
		}
		if _, err := part.Write(data); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(server, "/")+"/upload_and_query", &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var out askResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("unexpected response (%s): %s", resp.Status, raw)
	}

	color.Green("%s", out.Answer)
	color.HiBlack("(%s in %s)", resp.Status, time.Since(start).Round(time.Millisecond))
	return nil
}
