package podman

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/joomcode/errorx"
	"github.com/rs/zerolog/log"

	"github.com/RedHatInsights/mockbdd"
	"github.com/RedHatInsights/mockbdd/internal/session"
)

var (
	DefaultPodmanCli = "podman"
	DefaultImage     = "registry.access.redhat.com/ubi9/ubi-minimal:latest"

	ErrNamespace   = errorx.NewNamespace("podman")
	ContainerError = ErrNamespace.NewType("container")
)

type PodmanOption func(*podmanProvider)

func WithImage(image string) PodmanOption {
	return func(p *podmanProvider) {
		p.image = image
	}
}

func WithCLI(cli string) PodmanOption {
	return func(p *podmanProvider) {
		p.cli = cli
	}
}

func WithWorkdir(workdir string) PodmanOption {
	return func(p *podmanProvider) {
		p.workdir = workdir
	}
}

// WithVolumes mounts host paths, typically the directory holding the
// executable under test.
func WithVolumes(volumes ...string) PodmanOption {
	return func(p *podmanProvider) {
		p.volumes = append(p.volumes, volumes...)
	}
}

func WithEnvVars(envVars ...string) PodmanOption {
	return func(p *podmanProvider) {
		p.envVars = append(p.envVars, envVars...)
	}
}

func WithNetwork(network string) PodmanOption {
	return func(p *podmanProvider) {
		p.network = network
	}
}

func WithPrivileged(privileged bool) PodmanOption {
	return func(p *podmanProvider) {
		p.privileged = privileged
	}
}

type podmanProvider struct {
	cli         string
	image       string
	workdir     string
	volumes     []string
	envVars     []string
	network     string
	privileged  bool
	containerID string
	prepared    bool
}

func Provider(opts ...PodmanOption) *podmanProvider {
	p := &podmanProvider{
		cli:   DefaultPodmanCli,
		image: DefaultImage,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Prepare creates and starts the container commands are executed in.
func (p *podmanProvider) Prepare() error {
	if p.prepared {
		return nil
	}

	exists, err := p.ImageExists()
	if err != nil {
		return err
	}
	if !exists {
		if err := p.PullImage(); err != nil {
			return err
		}
	}

	containerID, err := p.createContainer()
	if err != nil {
		return err
	}
	p.containerID = containerID

	if err := p.startContainer(); err != nil {
		return err
	}

	log.Debug().Str("container", p.containerID).Str("image", p.image).Msg("Container prepared")
	p.prepared = true
	return nil
}

func (p *podmanProvider) Cleanup() error {
	if !p.prepared || p.containerID == "" {
		return nil
	}

	// stop may fail for an already exited container, rm decides
	_ = exec.Command(p.cli, "stop", p.containerID).Run()

	if err := exec.Command(p.cli, "rm", p.containerID).Run(); err != nil {
		return ContainerError.Wrap(err, "failed to remove container %s", p.containerID)
	}

	p.containerID = ""
	p.prepared = false
	return nil
}

func (p *podmanProvider) PullImage() error {
	if err := exec.Command(p.cli, "pull", p.image).Run(); err != nil {
		return ContainerError.Wrap(err, "failed to pull image %s", p.image)
	}
	return nil
}

func (p *podmanProvider) ImageExists() (bool, error) {
	err := exec.Command(p.cli, "image", "exists", p.image).Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return false, nil
		}
		return false, ContainerError.Wrap(err, "failed to inspect image %s", p.image)
	}
	return true, nil
}

func (p *podmanProvider) createArgs() []string {
	args := []string{"create", "--init"}

	if p.workdir != "" {
		args = append(args, "--workdir", p.workdir)
	}
	for _, volume := range p.volumes {
		args = append(args, "-v", volume)
	}
	for _, env := range p.envVars {
		args = append(args, "-e", env)
	}
	if p.network != "" {
		args = append(args, "--network", p.network)
	}
	if p.privileged {
		args = append(args, "--privileged")
	}

	// keep the container alive between exec calls
	return append(args, p.image, "sleep", "infinity")
}

func (p *podmanProvider) createContainer() (string, error) {
	output, err := exec.Command(p.cli, p.createArgs()...).Output()
	if err != nil {
		return "", ContainerError.Wrap(err, "failed to create container")
	}
	return strings.TrimSpace(string(output)), nil
}

func (p *podmanProvider) startContainer() error {
	if err := exec.Command(p.cli, "start", p.containerID).Run(); err != nil {
		return ContainerError.Wrap(err, "failed to start container %s", p.containerID)
	}

	for i := 0; i < 10; i++ {
		if running, err := p.isContainerRunning(); err != nil {
			return err
		} else if running {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	return ContainerError.New("container %s failed to start within timeout", p.containerID)
}

func (p *podmanProvider) isContainerRunning() (bool, error) {
	output, err := exec.Command(p.cli, "container", "inspect", p.containerID, "--format", "{{.State.Running}}").Output()
	if err != nil {
		return false, ContainerError.Wrap(err, "failed to inspect container %s", p.containerID)
	}
	return strings.TrimSpace(string(output)) == "true", nil
}

// execArgv wraps cmd into a non-interactive `podman exec`. Without a TTY
// podman keeps the program's stderr apart, the session merges it.
func (p *podmanProvider) execArgv(cmd []string) []string {
	argv := []string{p.cli, "exec", "-i", p.containerID}
	return append(argv, cmd...)
}

func (p *podmanProvider) StartCommand(ctx context.Context, cmd []string) (mockbdd.Session, error) {
	if !p.prepared {
		if err := p.Prepare(); err != nil {
			return nil, errorx.Decorate(err, "failed to prepare container")
		}
	}

	s, err := session.Start(ctx, p.execArgv(cmd), session.Options{MapExitCode: mapExitCode})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// mapExitCode separates podman's own failures from the program's exit
// code.
func mapExitCode(code int, err error) (int, error) {
	switch code {
	case 125:
		return -1, ContainerError.Wrap(err, "podman exec internal error")
	case 126:
		return -1, ContainerError.Wrap(err, "cannot invoke command in container")
	case 127:
		return -1, ContainerError.Wrap(err, "command not found in container")
	default:
		return code, nil
	}
}
