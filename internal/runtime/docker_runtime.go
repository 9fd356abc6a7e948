package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/network"
	"github.com/moby/moby/client"

	"github.com/strohel/locations-imgtest/internal/logger"
)

// DockerClient is the subset of the moby client used by DockerRuntime.
// Extracted as an interface so tests can substitute a mock.
type DockerClient interface {
	ContainerCreate(ctx context.Context, options client.ContainerCreateOptions) (client.ContainerCreateResult, error)
	ContainerStart(ctx context.Context, containerID string, options client.ContainerStartOptions) (client.ContainerStartResult, error)
	ContainerKill(ctx context.Context, containerID string, options client.ContainerKillOptions) (client.ContainerKillResult, error)
	ContainerLogs(ctx context.Context, containerID string, options client.ContainerLogsOptions) (client.ContainerLogsResult, error)
	ContainerStats(ctx context.Context, containerID string, options client.ContainerStatsOptions) (client.ContainerStatsResult, error)
	Close() error
}

type DockerRuntime struct {
	cli DockerClient
}

func NewDockerRuntime() (*DockerRuntime, error) {
	cli, err := client.New(client.FromEnv)
	if err != nil {
		return nil, fmt.Errorf("cannot create Docker client: %w", err)
	}
	return &DockerRuntime{cli: cli}, nil
}

// NewDockerRuntimeWithClient creates a DockerRuntime backed by the given
// client. Used by tests.
func NewDockerRuntimeWithClient(cli DockerClient) *DockerRuntime {
	return &DockerRuntime{cli: cli}
}

func (d *DockerRuntime) Run(ctx context.Context, spec RunSpec) (string, error) {
	port, err := network.ParsePort(strconv.Itoa(spec.Port) + "/tcp")
	if err != nil {
		return "", fmt.Errorf("invalid port %d: %w", spec.Port, err)
	}

	created, err := d.cli.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config: &container.Config{
			Image:        spec.Image,
			Env:          spec.Env,
			ExposedPorts: network.PortSet{port: struct{}{}},
		},
		HostConfig: &container.HostConfig{
			AutoRemove: true,
			PortBindings: network.PortMap{
				port: []network.PortBinding{{HostPort: strconv.Itoa(spec.Port)}},
			},
			Resources: container.Resources{
				NanoCPUs:   spec.NanoCPUs,
				Memory:     spec.MemoryBytes,
				MemorySwap: spec.MemoryBytes,
				CpusetCpus: spec.CPUSet,
			},
		},
	})
	if err != nil {
		if errdefs.IsNotFound(err) {
			return "", fmt.Errorf("image %s not found: %w", spec.Image, err)
		}
		return "", fmt.Errorf("error creating container from image %s: %w", spec.Image, err)
	}

	if _, err := d.cli.ContainerStart(ctx, created.ID, client.ContainerStartOptions{}); err != nil {
		return "", fmt.Errorf("error starting container %s: %w", created.ID, err)
	}
	logger.WithComponent("docker-runtime").Debugf("started container %s from image %s", created.ID, spec.Image)
	return created.ID, nil
}

// Kill force-stops the container. With AutoRemove set at creation the daemon
// reclaims it afterwards. A container that is already gone is not an error.
func (d *DockerRuntime) Kill(ctx context.Context, containerID string) error {
	_, err := d.cli.ContainerKill(ctx, containerID, client.ContainerKillOptions{Signal: "SIGKILL"})
	if err != nil {
		if errdefs.IsNotFound(err) {
			logger.WithComponent("docker-runtime").Debugf("container %s already removed", containerID)
			return nil
		}
		return fmt.Errorf("error killing container %s: %w", containerID, err)
	}
	return nil
}

func (d *DockerRuntime) Logs(ctx context.Context, containerID string) (string, error) {
	reader, err := d.cli.ContainerLogs(ctx, containerID, client.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", fmt.Errorf("error reading logs of container %s: %w", containerID, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("error reading logs of container %s: %w", containerID, err)
	}
	return demultiplexLogs(data), nil
}

func (d *DockerRuntime) Stats(ctx context.Context, containerID string) (StatsStream, error) {
	result, err := d.cli.ContainerStats(ctx, containerID, client.ContainerStatsOptions{Stream: true})
	if err != nil {
		return nil, fmt.Errorf("error streaming stats of container %s: %w", containerID, err)
	}
	return &dockerStatsStream{body: result.Body, dec: json.NewDecoder(result.Body)}, nil
}

func (d *DockerRuntime) Close() error {
	return d.cli.Close()
}

type dockerStatsStream struct {
	body io.ReadCloser
	dec  *json.Decoder
}

func (s *dockerStatsStream) Next() (Sample, error) {
	var stats container.StatsResponse
	if err := s.dec.Decode(&stats); err != nil {
		return Sample{}, err
	}
	return Sample{
		CPUTotalMs:    float64(stats.CPUStats.CPUUsage.TotalUsage) / 1e6,
		MemUsageMB:    float64(stats.MemoryStats.Usage) / (1 << 20),
		MemMaxUsageMB: float64(stats.MemoryStats.MaxUsage) / (1 << 20),
	}, nil
}

func (s *dockerStatsStream) Close() error {
	return s.body.Close()
}

// demultiplexLogs strips the 8-byte frame headers the daemon prefixes to the
// combined stdout/stderr stream of a container running without a TTY:
// [stream_type][3 zero bytes][big-endian payload size].
func demultiplexLogs(data []byte) string {
	var out strings.Builder

	for len(data) > 0 {
		if len(data) >= 8 && data[0] <= 2 && data[1] == 0 && data[2] == 0 && data[3] == 0 {
			size := uint32(data[4])<<24 | uint32(data[5])<<16 | uint32(data[6])<<8 | uint32(data[7])
			if len(data) >= int(8+size) {
				out.Write(data[8 : 8+size])
				data = data[8+size:]
				continue
			}
		}
		// Not a framed stream (TTY mode), or a truncated frame.
		out.Write(data)
		break
	}

	return out.String()
}
