package syscalls

import (
	"strconv"
	"strings"
)

// x86_64 syscall names, indexed by number. Numbers missing from the table
// are reported as "syscall_<nr>".
var x86_64 = map[uint32]string{
	0: "read",
	1: "write",
	2: "open",
	3: "close",
	4: "stat",
	5: "fstat",
	6: "lstat",
	7: "poll",
	8: "lseek",
	9: "mmap",
	10: "mprotect",
	11: "munmap",
	12: "brk",
	13: "rt_sigaction",
	14: "rt_sigprocmask",
	15: "rt_sigreturn",
	16: "ioctl",
	17: "pread64",
	18: "pwrite64",
	19: "readv",
	20: "writev",
	21: "access",
	22: "pipe",
	23: "select",
	24: "sched_yield",
	25: "mremap",
	26: "msync",
	27: "mincore",
	28: "madvise",
	29: "shmget",
	30: "shmat",
	31: "shmctl",
	32: "dup",
	33: "dup2",
	34: "pause",
	35: "nanosleep",
	36: "getitimer",
	37: "alarm",
	38: "setitimer",
	39: "getpid",
	40: "sendfile",
	41: "socket",
	42: "connect",
	43: "accept",
	44: "sendto",
	45: "recvfrom",
	46: "sendmsg",
	47: "recvmsg",
	48: "shutdown",
	49: "bind",
	50: "listen",
	51: "getsockname",
	52: "getpeername",
	53: "socketpair",
	54: "setsockopt",
	55: "getsockopt",
	56: "clone",
	57: "fork",
	58: "vfork",
	59: "execve",
	60: "exit",
	61: "wait4",
	62: "kill",
	63: "uname",
	64: "semget",
	65: "semop",
	66: "semctl",
	67: "shmdt",
	68: "msgget",
	69: "msgsnd",
	70: "msgrcv",
	71: "msgctl",
	72: "fcntl",
	73: "flock",
	74: "fsync",
	75: "fdatasync",
	76: "truncate",
	77: "ftruncate",
	78: "getdents",
	79: "getcwd",
	80: "chdir",
	81: "fchdir",
	82: "rename",
	83: "mkdir",
	84: "rmdir",
	85: "creat",
	86: "link",
	87: "unlink",
	88: "symlink",
	89: "readlink",
	90: "chmod",
	91: "fchmod",
	92: "chown",
	93: "fchown",
	94: "lchown",
	95: "umask",
	96: "gettimeofday",
	97: "getrlimit",
	98: "getrusage",
	99: "sysinfo",
	100: "times",
	101: "ptrace",
	102: "getuid",
	103: "syslog",
	104: "getgid",
	105: "setuid",
	106: "setgid",
	107: "geteuid",
	108: "getegid",
	109: "setpgid",
	110: "getppid",
	111: "getpgrp",
	112: "setsid",
	186: "gettid",
	200: "tkill",
	202: "futex",
	213: "epoll_create",
	217: "getdents64",
	218: "set_tid_address",
	228: "clock_gettime",
	230: "clock_nanosleep",
	231: "exit_group",
	232: "epoll_wait",
	233: "epoll_ctl",
	234: "tgkill",
	257: "openat",
	262: "newfstatat",
	263: "unlinkat",
	270: "pselect6",
	271: "ppoll",
	273: "set_robust_list",
	281: "epoll_pwait",
	288: "accept4",
	290: "eventfd2",
	291: "epoll_create1",
	292: "dup3",
	293: "pipe2",
	302: "prlimit64",
	318: "getrandom",
	319: "memfd_create",
	322: "execveat",
	332: "statx",
	334: "rseq",
	435: "clone3",
}

var byName = func() map[string]uint32 {
	m := make(map[string]uint32, len(x86_64))
	for nr, name := range x86_64 {
		m[name] = nr
	}
	return m
}()

// Name returns the name of the syscall number.
func Name(nr uint32) string {
	if name, ok := x86_64[nr]; ok {
		return name
	}
	return "syscall_" + strconv.FormatUint(uint64(nr), 10)
}

// Known reports whether nr has an entry in the table.
func Known(nr uint32) bool {
	_, ok := x86_64[nr]
	return ok
}

// Number returns the number of a syscall by name. Names of the form
// "syscall_<nr>" and plain numbers are accepted too.
func Number(name string) (uint32, bool) {
	name = strings.TrimSpace(strings.ToLower(name))
	if nr, ok := byName[name]; ok {
		return nr, true
	}
	name = strings.TrimPrefix(name, "syscall_")
	nr, err := strconv.ParseUint(name, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(nr), true
}
