package main

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/pkg/browser"
	"github.com/rohankatakam/crewforge/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Interactive setup wizard (with OS keychain support)",
	Long: `Walk through CrewForge configuration step-by-step with secure credential storage.

This will configure:
1. LLM provider (openai, anthropic, gemini or an OpenAI-compatible server)
2. API key (stored in OS keychain when available)
3. Model
4. Completion cache and run history backends`,
	RunE: runConfigure,
}

func runConfigure(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "🔧 CrewForge Configuration Wizard")
	fmt.Fprintln(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Fprintln(w)

	configPath := cfgFile
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}
	loadedCfg, err := config.Load(configPath)
	if err != nil {
		loadedCfg = config.Default()
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	answers := &prompter{w: w, reader: reader}
	ask := answers.ask

	// Step 1: provider
	fmt.Fprintln(w, "Step 1/4: LLM Provider")
	providers := []string{
		config.ProviderOpenAI,
		config.ProviderAnthropic,
		config.ProviderGemini,
		config.ProviderOpenAICompatible,
	}
	for i, p := range providers {
		fmt.Fprintf(w, "  %d. %s\n", i+1, p)
	}
	fmt.Fprintf(w, "Current: %s\n", loadedCfg.LLM.Provider)
	if choice := ask("Select provider (1-4) or press Enter to keep current: "); choice != "" {
		var n int
		if _, err := fmt.Sscanf(choice, "%d", &n); err == nil && n >= 1 && n <= len(providers) {
			if providers[n-1] != loadedCfg.LLM.Provider {
				loadedCfg.LLM.Provider = providers[n-1]
				loadedCfg.LLM.Model = config.DefaultModel(loadedCfg.LLM.Provider)
			}
		} else {
			fmt.Fprintf(w, "⚠️  Unknown choice %q, keeping %s\n", choice, loadedCfg.LLM.Provider)
		}
	}
	provider := loadedCfg.LLM.Provider
	if provider == config.ProviderOpenAICompatible {
		if u := ask(fmt.Sprintf("Server base URL [%s]: ", loadedCfg.LLM.CustomLLMURL)); u != "" {
			loadedCfg.LLM.CustomLLMURL = u
		}
	}
	if answers.err != nil {
		return answers.err
	}
	fmt.Fprintln(w)

	// Step 2: API key
	fmt.Fprintln(w, "Step 2/4: API Key")
	km := config.NewKeyringManager()
	if !km.IsAvailable() {
		fmt.Fprintln(w, "⚠️  OS keychain not available (headless system or Linux without libsecret)")
		fmt.Fprintln(w, "   The key will be stored in the config file instead.")
	}

	source := km.GetAPIKeySource(loadedCfg)
	keep := false
	if source.Source != "none" {
		fmt.Fprintf(w, "Source: %s\n", source.Recommended)
		answer := ask("Keep existing key? (Y/n): ")
		keep = answer == "" || strings.EqualFold(answer, "y")
	}

	if !keep {
		if url := config.KeyPageURL(provider); url != "" {
			if answer := ask(fmt.Sprintf("Open %s in your browser? (y/N): ", url)); strings.EqualFold(answer, "y") {
				if err := browser.OpenURL(url); err != nil {
					fmt.Fprintf(w, "⚠️  Could not open browser: %v\n", err)
				}
			}
		}

		if answers.err != nil {
			return answers.err
		}
		fmt.Fprintf(w, "Enter %s: ", config.EnvVarForProvider(provider))
		creds := config.NewCredentialManagerWithIO(secretSource(cmd.InOrStdin(), reader), w, true)
		key, err := creds.ReadSecret()
		if err != nil {
			return fmt.Errorf("failed to read API key: %w", err)
		}

		if key == "" {
			fmt.Fprintln(w, "⏭️  No key entered. Set it later with: export "+config.EnvVarForProvider(provider)+"=...")
		} else {
			inKeychain, err := creds.SaveAPIKey(loadedCfg, provider, key)
			if err != nil {
				fmt.Fprintf(w, "⚠️  %v\n", err)
				fmt.Fprintln(w, "Saving to config file instead...")
				loadedCfg.SetAPIKey(provider, key)
				loadedCfg.LLM.UseKeychain = false
			} else if inKeychain {
				fmt.Fprintln(w, "✅ API key saved to OS keychain (secure)")
				fmt.Fprintf(w, "   📍 %s\n", getKeychainLocation())
			} else {
				fmt.Fprintln(w, "✅ API key saved to config file (plaintext)")
			}
			fmt.Fprintf(w, "   %s\n", config.MaskAPIKey(key))
		}
	}
	fmt.Fprintln(w)

	// Step 3: model
	fmt.Fprintln(w, "Step 3/4: Model")
	fmt.Fprintf(w, "Current: %s\n", loadedCfg.LLM.Model)
	if m := ask("Model name or press Enter to keep current: "); m != "" {
		loadedCfg.LLM.Model = m
	}
	fmt.Fprintln(w)

	// Step 4: backends
	fmt.Fprintln(w, "Step 4/4: Cache and History")
	fmt.Fprintf(w, "Completion cache: %s\n", loadedCfg.Cache.Backend)
	if b := ask("Cache backend (bolt, redis, none) or Enter to keep: "); b != "" {
		loadedCfg.Cache.Backend = b
		if b == "redis" {
			if addr := ask(fmt.Sprintf("Redis address [%s]: ", loadedCfg.Cache.RedisAddr)); addr != "" {
				loadedCfg.Cache.RedisAddr = addr
			}
		}
	}
	fmt.Fprintf(w, "Run history: %s\n", loadedCfg.Storage.Type)
	if t := ask("History storage (sqlite, postgres, none) or Enter to keep: "); t != "" {
		loadedCfg.Storage.Type = t
		if t == "postgres" {
			if dsn := ask("Postgres DSN: "); dsn != "" {
				loadedCfg.Storage.PostgresDSN = dsn
			}
		}
	}

	if answers.err != nil {
		return answers.err
	}

	result := loadedCfg.Validate(config.ValidationContextAll)
	if result.HasErrors() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, result.Error())
		return result.AsError()
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Save to: %s\n", configPath)
	answer := ask("Confirm? (Y/n): ")
	if answers.err != nil {
		return answers.err
	}
	if answer != "" && !strings.EqualFold(answer, "y") {
		fmt.Fprintln(w, "⏭️  Configuration not saved")
		return nil
	}
	if err := loadedCfg.Save(configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintln(w, "✅ Configuration saved!")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "🎯 Next Steps:")
	fmt.Fprintln(w, "   crewforge agents            # inspect the crew")
	fmt.Fprintln(w, "   crewforge run               # build the ticketing preset")
	fmt.Fprintln(w, "   crewforge run -p ecommerce  # build the e-commerce store")
	return nil
}

// errInputEnded stops the wizard when stdin closes before every question is
// answered
var errInputEnded = stderrors.New("input ended before configuration was complete, nothing saved")

// prompter reads one answer per line. The first read failure is kept and
// every later question answers empty.
type prompter struct {
	w      io.Writer
	reader *bufio.Reader
	err    error
}

func (p *prompter) ask(prompt string) string {
	if p.err != nil {
		return ""
	}
	fmt.Fprint(p.w, prompt)
	line, err := p.reader.ReadString('\n')
	switch {
	case err == nil:
	case stderrors.Is(err, io.EOF):
		// a final answer without a trailing newline still counts
		if line == "" {
			p.err = errInputEnded
		}
	default:
		p.err = fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line)
}

// secretSource reads hidden input straight from a terminal stdin, and from
// the shared line reader otherwise so buffered answers are not lost
func secretSource(in io.Reader, buffered *bufio.Reader) io.Reader {
	if f, ok := in.(*os.File); ok && buffered.Buffered() == 0 && term.IsTerminal(int(f.Fd())) {
		return f
	}
	return buffered
}

func getKeychainLocation() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS Keychain Access.app → 'crewforge'"
	case "windows":
		return "Windows Credential Manager → 'crewforge'"
	case "linux":
		return "Linux Secret Service (libsecret)"
	default:
		return "OS Keychain"
	}
}
