package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/zhenxun-org/nb-cli-plugin-zhenxun/internal/logger"
)

const (
	defaultBranch   = "main"
	maxAPIResponse  = 1 << 20
	githubTokenEnv  = "GITHUB_TOKEN"
	githubAPIAccept = "application/vnd.github+json"
)

// ParseRepoURL parses a hosting tree URL such as
// "https://github.com/owner/repo/tree/branch". The branch defaults to main.
func ParseRepoURL(input string) (RepoInfo, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return RepoInfo{}, fmt.Errorf("empty repository URL")
	}
	if !strings.HasPrefix(input, "https://") && !strings.HasPrefix(input, "http://") {
		return RepoInfo{}, fmt.Errorf("unsupported repository URL %q", input)
	}

	u, err := url.Parse(input)
	if err != nil {
		return RepoInfo{}, fmt.Errorf("invalid URL: %w", err)
	}

	// Path segments: /owner/repo[/tree/branch]
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return RepoInfo{}, fmt.Errorf("repository URL %q has no owner/repo", input)
	}

	info := RepoInfo{
		Host:   u.Host,
		Owner:  parts[0],
		Repo:   strings.TrimSuffix(parts[1], ".git"),
		Branch: defaultBranch,
	}
	if len(parts) >= 4 && parts[2] == "tree" && parts[3] != "" {
		info.Branch = strings.Join(parts[3:], "/")
	}
	return info, nil
}

// SourceLocator turns a repository reference into archive download URLs.
type SourceLocator struct {
	client   *http.Client
	resolver *MirrorResolver
	log      *slog.Logger

	apiBaseURL string
	token      string
	mirrors    []string

	// roots maps an archive URL whose template names a commit to the
	// top-level directory that archive unpacks to.
	roots map[string]string
}

// NewSourceLocator creates a locator for the configured API and mirrors.
func NewSourceLocator(cfg *Config, client *http.Client, resolver *MirrorResolver, log *slog.Logger) *SourceLocator {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = logger.Discard()
	}
	token := os.Getenv(githubTokenEnv)
	if token == "" {
		token = cfg.GitHubToken
	}
	return &SourceLocator{
		client:     client,
		resolver:   resolver,
		log:        log,
		apiBaseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		token:      token,
		mirrors:    cfg.ArchiveMirrors,
		roots:      make(map[string]string),
	}
}

type githubCommit struct {
	SHA string `json:"sha"`
}

// ArchiveURLs returns candidate archive URLs for the branch's current
// snapshot, fastest mirror first. It returns nil when the API lookup fails;
// callers treat that as a recoverable abort.
func (l *SourceLocator) ArchiveURLs(ctx context.Context, info RepoInfo) []string {
	sha, err := l.latestCommit(ctx, info)
	if err != nil {
		l.log.Warn("resolving latest commit failed", "repo", info.String(), "error", err)
		return nil
	}
	l.log.Debug("resolved latest commit", "repo", info.String(), "sha", sha)

	candidates := make([]string, 0, len(l.mirrors))
	seen := make(map[string]bool)
	for _, tmpl := range l.mirrors {
		u := ExpandArchiveTemplate(tmpl, info, sha)
		if !seen[u] {
			seen[u] = true
			candidates = append(candidates, u)
		}
		if strings.Contains(tmpl, "{sha}") {
			l.roots[u] = info.Repo + "-" + sha
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	if l.resolver == nil || len(candidates) == 1 {
		return candidates
	}

	fastest := l.resolver.Fastest(ctx, candidates)
	if len(fastest) == 0 {
		return candidates
	}
	return fastest
}

// ArchiveRootFor returns the directory the archive at archiveURL unpacks to.
// Archives addressed by commit unpack to <repo>-<sha>, branch archives to
// info.ArchiveRoot().
func (l *SourceLocator) ArchiveRootFor(info RepoInfo, archiveURL string) string {
	if root, ok := l.roots[archiveURL]; ok {
		return root
	}
	return info.ArchiveRoot()
}

// latestCommit asks the API for the head commit of the branch.
func (l *SourceLocator) latestCommit(ctx context.Context, info RepoInfo) (string, error) {
	base, err := url.Parse(l.apiBaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid API base URL: %w", err)
	}
	apiURL := base.JoinPath("repos", info.Owner, info.Repo, "commits", info.Branch)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", githubAPIAccept)
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching commit: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("repository %s not found", info.String())
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("GitHub API rate limit exceeded; set %s for higher limits", githubTokenEnv)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var commit githubCommit
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxAPIResponse)).Decode(&commit); err != nil {
		return "", fmt.Errorf("parsing commit: %w", err)
	}
	if commit.SHA == "" {
		return "", fmt.Errorf("commit response has no sha")
	}
	return commit.SHA, nil
}
